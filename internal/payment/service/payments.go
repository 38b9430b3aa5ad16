package service

import (
	"context"
	"fmt"
	"time"

	"enroll/internal/activitylog"
	"enroll/internal/events"
	"enroll/internal/payment/gateway"
	"enroll/internal/payment/models"
	rmodels "enroll/internal/registrant/models"
	"enroll/pkg/contact"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/email"
	"enroll/pkg/requestcontext"
)

// CreatePix creates the PIX order for the first installment of an N-installment
// plan. Missing customer details are taken from the registrant with the same
// email.
func (s *Service) CreatePix(ctx context.Context, req *models.PixRequest) (*models.PixResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	reg := s.fillFromRegistrant(ctx, req)
	if req.Phone == "" || req.TaxID == "" {
		return nil, dErrors.New(dErrors.CodeValidation,
			"phone and tax_id are required when no registration matches the email")
	}
	if req.FullName == "" {
		req.FullName = email.DeriveNameFromEmail(req.Email)
	}
	phone, err := contact.ParsePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	taxID, err := contact.NormalizeTaxID(req.TaxID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	amount := s.registrants.Price().Div(req.Installments)
	var registrantID string
	if reg != nil {
		registrantID = reg.ID
	}
	order := &gateway.OrderRequest{
		ReferenceID: referenceID(registrantID, req.Email, now),
		Customer: gateway.Customer{
			Name:   req.FullName,
			Email:  req.Email,
			TaxID:  taxID,
			Phones: []gateway.Phone{{Country: "55", Area: phone.Area, Number: phone.Number, Type: "MOBILE"}},
		},
		Items: []gateway.Item{{
			ReferenceID: "installment_01",
			Name:        fmt.Sprintf("Installment 1/%d", req.Installments),
			Quantity:    1,
			UnitAmount:  int64(amount),
		}},
		QRCodes: []gateway.QRCodeRequest{{
			Amount:         gateway.Amount{Value: int64(amount)},
			ExpirationDate: now.Add(pixExpiry).UTC().Format(time.RFC3339),
		}},
		NotificationURLs: s.notificationURLs(),
	}

	created, err := s.gateway.CreateOrder(ctx, order)
	if err != nil {
		s.metrics.IncrementPaymentsCreated("pix", string(dErrors.CodeOf(err)))
		s.record(ctx, activitylog.KindPayment, activitylog.LevelError, "pix order failed",
			"email", req.Email, "error", err)
		return nil, err
	}
	s.metrics.IncrementPaymentsCreated("pix", "ok")

	resp := &models.PixResponse{
		OrderID:     created.ID,
		ReferenceID: order.ReferenceID,
		Amount:      amount.Float(),
		Installment: 1,
		ExpiresAt:   order.QRCodes[0].ExpirationDate,
	}
	if len(created.QRCodes) > 0 {
		qr := created.QRCodes[0]
		resp.QRCodeText = qr.Text
		resp.QRCodeImage = qr.ImageURL()
		if qr.ExpirationDate != "" {
			resp.ExpiresAt = qr.ExpirationDate
		}
	}

	s.afterOrder(ctx, rmodels.Ref{ID: registrantID, Email: req.Email}, created.ID, "pix", int64(amount), 1)
	return resp, nil
}

// fillFromRegistrant completes req from the most recent registration with the
// same email. Lookup failures leave req unchanged.
func (s *Service) fillFromRegistrant(ctx context.Context, req *models.PixRequest) *rmodels.Registrant {
	reg, err := s.registrants.FindByEmail(ctx, req.Email)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.logger.WarnContext(ctx, "registrant lookup for pix failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		return nil
	}
	if req.FullName == "" {
		req.FullName = reg.FullName
	}
	if req.Phone == "" {
		req.Phone = reg.Phone
	}
	if req.TaxID == "" {
		req.TaxID = reg.TaxID
	}
	return reg
}

// CreateCard charges the encrypted card for the requested total.
func (s *Service) CreateCard(ctx context.Context, req *models.CardRequest) (*models.CardResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	phone, err := contact.ParsePhone(req.Phone)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	total := req.Total()
	ref := referenceID(req.RegistrantID, req.Email, now)
	order := &gateway.OrderRequest{
		ReferenceID: ref,
		Customer: gateway.Customer{
			Name:   req.FullName,
			Email:  req.Email,
			TaxID:  req.TaxID,
			Phones: []gateway.Phone{{Country: "55", Area: phone.Area, Number: phone.Number, Type: "MOBILE"}},
		},
		Items: []gateway.Item{{
			ReferenceID: "registration",
			Name:        "Event registration",
			Quantity:    1,
			UnitAmount:  int64(total),
		}},
		Charges: []gateway.ChargeRequest{{
			ReferenceID: fmt.Sprintf("charge.%d", now.UnixMilli()),
			Description: "Registration paid by card",
			Amount:      gateway.Amount{Value: int64(total), Currency: "BRL"},
			PaymentMethod: gateway.PaymentMethod{
				Type:         gateway.MethodCreditCard,
				Installments: req.CardInstallments,
				Capture:      true,
				Card: &gateway.Card{
					Encrypted: req.EncryptedCard,
					Holder:    &gateway.Holder{Name: req.HolderName},
				},
			},
		}},
		NotificationURLs: s.notificationURLs(),
	}

	created, err := s.gateway.CreateOrder(ctx, order)
	if err != nil {
		s.metrics.IncrementPaymentsCreated("card", string(dErrors.CodeOf(err)))
		s.record(ctx, activitylog.KindPayment, activitylog.LevelError, "card order failed",
			"registrant_id", req.RegistrantID, "error", err)
		return nil, err
	}

	resp := &models.CardResponse{OrderID: created.ID, ReferenceID: ref}
	if len(created.Charges) > 0 {
		charge := created.Charges[0]
		resp.ChargeID = charge.ID
		resp.Status = charge.Status
		resp.Approved = charge.Status == gateway.ChargePaid
	}
	outcome := "pending"
	if resp.Approved {
		outcome = "approved"
	}
	s.metrics.IncrementPaymentsCreated("card", outcome)

	s.afterOrder(ctx, rmodels.Ref{ID: req.RegistrantID, Email: req.Email}, created.ID, "card", int64(total), 0)
	return resp, nil
}

// afterOrder runs the non-critical follow-ups of a created order.
func (s *Service) afterOrder(ctx context.Context, ref rmodels.Ref, orderID, method string, amount int64, slot int) {
	s.logAudit(ctx, "payment_order_created",
		"order_id", orderID,
		"method", method,
		"registrant", ref.String(),
	)
	s.record(ctx, activitylog.KindPayment, activitylog.LevelInfo, method+" order created",
		"order_id", orderID, "registrant", ref.String(), "amount_cents", amount)

	if ref.ID != "" {
		if err := s.registrants.RecordTransaction(ctx, ref, orderID); err != nil {
			s.logger.WarnContext(ctx, "failed to record transaction id",
				"request_id", requestcontext.RequestID(ctx),
				"order_id", orderID,
				"error", err,
			)
		}
	}

	e := events.New(events.TypePaymentCreated, ref.ID, requestcontext.Now(ctx))
	e.Email = ref.Email
	e.Slot = slot
	e.AmountCents = amount
	e.Source = method
	s.publish(ctx, e)
}

func (s *Service) notificationURLs() []string {
	if s.cfg.NotificationURL == "" {
		return nil
	}
	return []string{s.cfg.NotificationURL}
}

// PublicKey returns the key the browser uses to encrypt card data.
func (s *Service) PublicKey(_ context.Context) (*models.PublicKeyResponse, error) {
	s.keyMu.RLock()
	key := s.publicKey
	s.keyMu.RUnlock()
	if key == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration, "configuration incomplete: PAGBANK_PUBLIC_KEY is not set")
	}
	return &models.PublicKeyResponse{PublicKey: key, Environment: s.gateway.Environment()}, nil
}

// RotatePublicKey asks the gateway for a new card key and serves it from now
// on. The key is not persisted; operators copy it into PAGBANK_PUBLIC_KEY.
func (s *Service) RotatePublicKey(ctx context.Context) (*models.RotatedKeyResponse, error) {
	key, err := s.gateway.CreatePublicKey(ctx)
	if err != nil {
		return nil, err
	}
	s.keyMu.Lock()
	s.publicKey = key.PublicKey
	s.keyMu.Unlock()

	s.logAudit(ctx, "public_key_rotated", "admin", requestcontext.AdminSubject(ctx))
	return &models.RotatedKeyResponse{
		PublicKey:   key.PublicKey,
		CreatedAt:   key.CreatedAt,
		Environment: s.gateway.Environment(),
	}, nil
}
