package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mbravoz/drop-storefront/internal/discounts"
	"github.com/mbravoz/drop-storefront/internal/domain"
	"github.com/mbravoz/drop-storefront/internal/mail"
	"github.com/mbravoz/drop-storefront/internal/payments"
	"github.com/mbravoz/drop-storefront/internal/stock"
)

type fakeProcessor struct {
	payment    *payments.Payment
	pref       *payments.Preference
	paymentErr error
	prefErr    error
}

func (f *fakeProcessor) GetPayment(ctx context.Context, id string) (*payments.Payment, error) {
	return f.payment, f.paymentErr
}

func (f *fakeProcessor) GetPreference(ctx context.Context, id string) (*payments.Preference, error) {
	return f.pref, f.prefErr
}

type fakeUnits struct {
	serie    int
	claimErr error
	claimed  int
	released []int
	sold     []int
}

func (f *fakeUnits) Claim(ctx context.Context, productID int64) (int, error) {
	if f.claimErr != nil {
		return 0, f.claimErr
	}
	f.claimed++
	return f.serie, nil
}

func (f *fakeUnits) Release(ctx context.Context, productID int64, serie int) error {
	f.released = append(f.released, serie)
	return nil
}

func (f *fakeUnits) MarkSold(ctx context.Context, productID int64, serie int) error {
	f.sold = append(f.sold, serie)
	return nil
}

type fakeDiscounts struct {
	redeemErr  error
	redeemed   []int64
	unredeemed []int64
}

func (f *fakeDiscounts) Redeem(ctx context.Context, id int64) error {
	if f.redeemErr != nil {
		return f.redeemErr
	}
	f.redeemed = append(f.redeemed, id)
	return nil
}

func (f *fakeDiscounts) Unredeem(ctx context.Context, id int64) error {
	f.unredeemed = append(f.unredeemed, id)
	return nil
}

type fakeCustomers struct {
	err     error
	created []domain.Customer
}

func (f *fakeCustomers) Create(ctx context.Context, c *domain.Customer) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, *c)
	return nil
}

type fakeOrders struct {
	existing  *domain.Order
	createErr error
	created   []*domain.Order
}

func (f *fakeOrders) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	return f.existing, nil
}

func (f *fakeOrders) Create(ctx context.Context, order *domain.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, order)
	return nil
}

type fakeMailer struct {
	err  error
	sent []mail.Message
}

func (f *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakePublisher struct {
	events []any
}

func (f *fakePublisher) Publish(ctx context.Context, key string, event any) error {
	f.events = append(f.events, event)
	return nil
}

type fixture struct {
	processor *fakeProcessor
	units     *fakeUnits
	discounts *fakeDiscounts
	customers *fakeCustomers
	orders    *fakeOrders
	mailer    *fakeMailer
	publisher *fakePublisher
	service   *Service
}

func approvedPreference() *payments.Preference {
	return &payments.Preference{
		ID: "pref-1",
		Metadata: payments.Metadata{
			ProductID:      1,
			Zona:           "cba",
			MontoOriginal:  35800,
			MontoDescuento: 10740,
			MontoFinal:     25060,
			IDDescuento:    7,
			PorcentajeDesc: 30,
			DatosEnvio: &domain.DatosEnvio{
				Nombre:    "Ana",
				Email:     "ana@example.com",
				Provincia: "Córdoba",
				Ciudad:    "Córdoba",
				Direccion: "Av. Colón 1234",
			},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		processor: &fakeProcessor{
			payment: &payments.Payment{
				ID:                "pay-1",
				Status:            payments.StatusApproved,
				TransactionAmount: 25060,
				PreferenceID:      "pref-1",
				Raw:               json.RawMessage(`{"id":"pay-1"}`),
			},
			pref: approvedPreference(),
		},
		units:     &fakeUnits{serie: 42},
		discounts: &fakeDiscounts{},
		customers: &fakeCustomers{},
		orders:    &fakeOrders{},
		mailer:    &fakeMailer{},
		publisher: &fakePublisher{},
	}
	f.service = NewService(
		f.processor, f.units, f.discounts, f.customers, f.orders,
		f.mailer, f.publisher,
		1, "Edición limitada", discard(),
	)
	f.service.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func TestSettleApproved(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Settle(context.Background(), "pay-1", "pref-1")
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}

	if !result.Success {
		t.Fatalf("Success = false, message %q", result.Message)
	}
	if result.Pedido == nil || result.Pedido.NumeroSerie != 42 {
		t.Fatalf("Pedido = %+v, want numero_serie 42", result.Pedido)
	}
	if result.Pedido.MontoFinal != 25060 {
		t.Errorf("MontoFinal = %d, want 25060", result.Pedido.MontoFinal)
	}

	if len(f.orders.created) != 1 {
		t.Fatalf("orders created = %d, want 1", len(f.orders.created))
	}
	order := f.orders.created[0]
	if order.EstadoPago != domain.PaymentPaid {
		t.Errorf("EstadoPago = %q", order.EstadoPago)
	}
	if order.EstadoEnvio != domain.ShippingPending {
		t.Errorf("EstadoEnvio = %q", order.EstadoEnvio)
	}
	if order.DiscountID == nil || *order.DiscountID != 7 {
		t.Errorf("DiscountID = %v, want 7", order.DiscountID)
	}
	if order.CustomerID == nil {
		t.Error("CustomerID not linked")
	}
	if order.PaidAt == nil {
		t.Error("PaidAt not set")
	}
	if len(order.RawPayment) == 0 {
		t.Error("RawPayment not kept")
	}

	if len(f.discounts.redeemed) != 1 || f.discounts.redeemed[0] != 7 {
		t.Errorf("redeemed = %v, want [7]", f.discounts.redeemed)
	}
	if len(f.units.sold) != 1 || f.units.sold[0] != 42 {
		t.Errorf("sold = %v, want [42]", f.units.sold)
	}
	if len(f.customers.created) != 1 || f.customers.created[0].Email != "ana@example.com" {
		t.Errorf("customers created = %+v", f.customers.created)
	}
	if len(f.mailer.sent) != 1 || f.mailer.sent[0].To != "ana@example.com" {
		t.Errorf("emails sent = %+v", f.mailer.sent)
	}
	if len(f.publisher.events) != 1 {
		t.Fatalf("events published = %d, want 1", len(f.publisher.events))
	}
	event, ok := f.publisher.events[0].(domain.OrderPaidEvent)
	if !ok || event.NumeroSerie != 42 || event.CustomerEmail != "ana@example.com" {
		t.Errorf("event = %+v", f.publisher.events[0])
	}
}

func TestSettleNotApproved(t *testing.T) {
	f := newFixture(t)
	f.processor.payment.Status = payments.StatusPending

	result, err := f.service.Settle(context.Background(), "pay-1", "pref-1")
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if result.Success {
		t.Error("pending payment should not settle")
	}
	if result.Status != payments.StatusPending {
		t.Errorf("Status = %q, want pending", result.Status)
	}
	if f.units.claimed != 0 {
		t.Error("pending payment must not claim a unit")
	}
	if len(f.orders.created) != 0 {
		t.Error("pending payment must not create an order")
	}
}

func TestSettleIdempotent(t *testing.T) {
	f := newFixture(t)
	serie := 42
	f.orders.existing = &domain.Order{
		ID:          "ord-existing",
		NumeroSerie: &serie,
		Zona:        domain.ZoneCapital,
		MontoFinal:  25060,
		PaymentID:   "pay-1",
	}

	result, err := f.service.Settle(context.Background(), "pay-1", "pref-1")
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if !result.Success || result.Pedido.ID != "ord-existing" {
		t.Errorf("result = %+v, want existing order", result)
	}
	if f.units.claimed != 0 {
		t.Error("repeated settlement must not claim another unit")
	}
	if len(f.discounts.redeemed) != 0 {
		t.Error("repeated settlement must not redeem the discount again")
	}
}

func TestSettleAmountMismatch(t *testing.T) {
	f := newFixture(t)
	f.processor.payment.TransactionAmount = 20000

	_, err := f.service.Settle(context.Background(), "pay-1", "pref-1")
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("Settle() error = %v, want ErrAmountMismatch", err)
	}
	if f.units.claimed != 0 || len(f.orders.created) != 0 {
		t.Error("mismatched amount must not touch stock or orders")
	}
}

func TestSettleSoldOutCompensatesDiscount(t *testing.T) {
	f := newFixture(t)
	f.units.claimErr = stock.ErrNoStock

	_, err := f.service.Settle(context.Background(), "pay-1", "pref-1")
	if !errors.Is(err, stock.ErrNoStock) {
		t.Fatalf("Settle() error = %v, want ErrNoStock", err)
	}
	if len(f.discounts.unredeemed) != 1 || f.discounts.unredeemed[0] != 7 {
		t.Errorf("unredeemed = %v, want [7]", f.discounts.unredeemed)
	}
	if len(f.orders.created) != 0 {
		t.Error("sold out must not create an order")
	}
}

func TestSettleDiscountNoLongerRedeemable(t *testing.T) {
	f := newFixture(t)
	f.discounts.redeemErr = discounts.ErrNotRedeemable

	_, err := f.service.Settle(context.Background(), "pay-1", "pref-1")
	if !errors.Is(err, discounts.ErrNotRedeemable) {
		t.Fatalf("Settle() error = %v, want ErrNotRedeemable", err)
	}
	if f.units.claimed != 0 {
		t.Error("failed redeem must stop before claiming a unit")
	}
}

func TestSettleOrderInsertFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.orders.createErr = errors.New("duplicate key value violates unique constraint")

	_, err := f.service.Settle(context.Background(), "pay-1", "pref-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.units.released) != 1 || f.units.released[0] != 42 {
		t.Errorf("released = %v, want [42]", f.units.released)
	}
	if len(f.discounts.unredeemed) != 1 {
		t.Errorf("unredeemed = %v, want one compensation", f.discounts.unredeemed)
	}
	if len(f.units.sold) != 0 {
		t.Error("failed settlement must not mark the unit sold")
	}
}

func TestSettleCustomerCreateFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.customers.err = errors.New("connection refused")

	_, err := f.service.Settle(context.Background(), "pay-1", "pref-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.units.released) != 1 || f.units.released[0] != 42 {
		t.Errorf("released = %v, want the claimed unit back available", f.units.released)
	}
	if len(f.discounts.unredeemed) != 1 || f.discounts.unredeemed[0] != 7 {
		t.Errorf("unredeemed = %v, want [7]", f.discounts.unredeemed)
	}
	if len(f.orders.created) != 0 {
		t.Error("failed customer creation must not create an order")
	}
	if len(f.units.sold) != 0 {
		t.Error("failed settlement must not mark the unit sold")
	}
}

func TestSettleWithoutShippingData(t *testing.T) {
	f := newFixture(t)
	f.processor.pref.Metadata.DatosEnvio = nil
	f.processor.pref.Metadata.IDDescuento = 0
	f.processor.pref.Metadata.PorcentajeDesc = 0
	f.processor.pref.Metadata.MontoDescuento = 0
	f.processor.pref.Metadata.MontoFinal = 35800
	f.processor.payment.TransactionAmount = 35800

	result, err := f.service.Settle(context.Background(), "pay-1", "pref-1")
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false, message %q", result.Message)
	}
	if len(f.customers.created) != 0 {
		t.Error("no shipping data means no customer row")
	}
	if len(f.mailer.sent) != 0 {
		t.Error("no shipping data means no confirmation email")
	}
	if len(f.discounts.redeemed) != 0 {
		t.Error("no discount id means no redeem")
	}
	if f.orders.created[0].CustomerID != nil {
		t.Error("order should not link a customer")
	}
}

func TestSettleEmailFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("email API down")

	result, err := f.service.Settle(context.Background(), "pay-1", "pref-1")
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if !result.Success {
		t.Error("email failure must not fail the settlement")
	}
	if len(f.orders.created) != 1 {
		t.Error("order should still be created")
	}
}
