package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/application/uow"
	"github.com/wms/backend/internal/domain/billing"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/shared/valueobject"
	"github.com/wms/backend/internal/infrastructure/telemetry"
)

// DocTypeInvoice is the document type code for invoice numbering
const DocTypeInvoice = "IN"

// DocumentNumberer issues sequential document numbers per document type
// and business day
type DocumentNumberer interface {
	NextNumber(ctx context.Context, docType string) (string, error)
}

// InvoicingService generates invoices from shipments and tracks payments and
// notification counters. Exactly one invoice exists per shipment; generation
// bumps the order's invoiced counters and recomputes the invoicing rollup in
// the same transaction.
type InvoicingService struct {
	scope          uow.TransactionScope
	numberer       DocumentNumberer
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewInvoicingService creates a new invoicing service
func NewInvoicingService(scope uow.TransactionScope, numberer DocumentNumberer, logger *zap.Logger) *InvoicingService {
	return &InvoicingService{
		scope:    scope,
		numberer: numberer,
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher
func (s *InvoicingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GenerateInvoice derives the invoice for one shipment: every shipment line
// priced at its order line's agreed unit price, tax from the order's rate,
// freight passed through, due date from the customer's payment terms counted
// from issuedAt. A second invoice for the same shipment is rejected.
func (s *InvoicingService) GenerateInvoice(ctx context.Context, req *GenerateInvoiceRequest, actor uuid.UUID, issuedAt time.Time) (*InvoiceDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "invoicing", "generate",
		"shipment_id", req.ShipmentID)
	defer span.End()

	invoiceNumber, err := s.numberer.NextNumber(ctx, DocTypeInvoice)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var invoice *billing.Invoice
	var order *fulfillment.Order

	err = s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		exists, err := repos.InvoiceRepo().ExistsForShipment(ctx, req.ShipmentID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("ALREADY_EXISTS", "Shipment is already invoiced")
		}

		shipment, err := repos.ShipmentRepo().FindByID(ctx, req.ShipmentID)
		if err != nil {
			return err
		}
		order, err = repos.OrderRepo().FindByID(ctx, shipment.OrderID)
		if err != nil {
			return err
		}

		specs := make([]billing.InvoiceLineSpec, 0, len(shipment.Lines))
		for _, line := range shipment.Lines {
			orderLine := order.GetLine(line.OrderLineID)
			if orderLine == nil {
				return shared.ErrNotFound
			}
			specs = append(specs, billing.InvoiceLineSpec{
				OrderLineID: orderLine.ID,
				ProductID:   orderLine.ProductID,
				ProductName: orderLine.ProductName,
				Quantity:    line.QuantityShipped,
				UnitPrice:   orderLine.GetUnitPriceMoney(),
			})
			if err := orderLine.AddInvoiced(line.QuantityShipped); err != nil {
				return err
			}
		}

		invoice, err = billing.NewInvoice(invoiceNumber, order.ID, shipment.ID, order.CustomerID,
			order.CustomerName, specs, order.TaxRate, shipment.FreightAmount,
			order.PaymentTermsDays, issuedAt)
		if err != nil {
			return err
		}

		order.RecordInvoiceCreated()
		order.RecomputeStatus(fulfillment.StageInvoicing)
		if err := order.CheckConservation(); err != nil {
			return err
		}

		if err := repos.InvoiceRepo().Save(ctx, invoice); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "invoice_number", invoice.InvoiceNumber)

	s.logger.Info("invoice generated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("shipment_id", invoice.ShipmentID.String()),
		zap.String("total_amount", invoice.TotalAmount.String()))

	s.publishAggregateEvents(ctx, &invoice.BaseAggregateRoot, &order.BaseAggregateRoot)

	return ToInvoiceDTO(invoice), nil
}

// GetInvoice returns an invoice by id
func (s *InvoicingService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceDTO, error) {
	var invoice *billing.Invoice
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToInvoiceDTO(invoice), nil
}

// GetInvoiceByNumber returns an invoice by invoice number
func (s *InvoicingService) GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (*InvoiceDTO, error) {
	var invoice *billing.Invoice
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByNumber(ctx, invoiceNumber)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToInvoiceDTO(invoice), nil
}

// ListInvoicesByOrder returns all invoices generated for an order
func (s *InvoicingService) ListInvoicesByOrder(ctx context.Context, orderID uuid.UUID) ([]InvoiceDTO, error) {
	var invoices []billing.Invoice
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		invoices, err = repos.InvoiceRepo().FindByOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToInvoiceDTOs(invoices), nil
}

// RecordPayment applies a payment received at the given time against an
// invoice's balance
func (s *InvoicingService) RecordPayment(ctx context.Context, invoiceID uuid.UUID, req *RecordPaymentRequest, at time.Time) (*InvoiceDTO, error) {
	var invoice *billing.Invoice
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := invoice.RecordPayment(valueobject.NewMoneyUSD(req.Amount), at); err != nil {
			return err
		}
		return repos.InvoiceRepo().SaveWithLock(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.publishAggregateEvents(ctx, &invoice.BaseAggregateRoot)

	return ToInvoiceDTO(invoice), nil
}

// RecordEmailSent bumps the email dispatch counter after the invoice document
// went out. Counters only ever increase.
func (s *InvoicingService) RecordEmailSent(ctx context.Context, invoiceID uuid.UUID, at time.Time) (*InvoiceDTO, error) {
	return s.recordNotification(ctx, invoiceID, func(invoice *billing.Invoice) {
		invoice.RecordEmailSent(at)
	})
}

// RecordPrinted bumps the print counter
func (s *InvoicingService) RecordPrinted(ctx context.Context, invoiceID uuid.UUID, at time.Time) (*InvoiceDTO, error) {
	return s.recordNotification(ctx, invoiceID, func(invoice *billing.Invoice) {
		invoice.RecordPrinted(at)
	})
}

func (s *InvoicingService) recordNotification(ctx context.Context, invoiceID uuid.UUID, apply func(*billing.Invoice)) (*InvoiceDTO, error) {
	var invoice *billing.Invoice
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		apply(invoice)
		return repos.InvoiceRepo().SaveWithLock(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}
	return ToInvoiceDTO(invoice), nil
}

func (s *InvoicingService) publishAggregateEvents(ctx context.Context, roots ...*shared.BaseAggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, root := range roots {
		events := root.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Error("failed to publish billing events", zap.Error(err))
		}
		root.ClearDomainEvents()
	}
}
