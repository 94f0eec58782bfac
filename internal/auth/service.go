package auth

import (
	"context"
	"fmt"

	"github.com/fjod/bagshop/internal/domain"
	"github.com/fjod/bagshop/internal/logger"
	"go.uber.org/zap"
)

type OTPSender interface {
	Send(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, otp string) error
}

type Service struct {
	otp      OTPSender
	sessions *SessionStore
	log      *zap.Logger
}

func NewService(otp OTPSender, sessions *SessionStore, log *zap.Logger) *Service {
	return &Service{otp: otp, sessions: sessions, log: log}
}

func (s *Service) SendOTP(ctx context.Context, rawPhone string) error {
	phone, ok := domain.NormalizePhone(rawPhone)
	if !ok {
		return ErrInvalidPhone
	}
	if err := s.otp.Send(ctx, phone); err != nil {
		logger.Ctx(ctx, s.log).Warn("otp send failed", zap.Error(err))
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

// VerifyOTP checks the code and opens a session for the phone number.
func (s *Service) VerifyOTP(ctx context.Context, rawPhone, otp string) (*Session, error) {
	phone, ok := domain.NormalizePhone(rawPhone)
	if !ok {
		return nil, ErrInvalidPhone
	}
	if otp == "" {
		return nil, ErrInvalidOTP
	}
	if err := s.otp.Verify(ctx, phone, otp); err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	sess, err := s.sessions.Create(ctx, phone)
	if err != nil {
		logger.Ctx(ctx, s.log).Error("session create failed", zap.Error(err))
		return nil, err
	}
	return sess, nil
}

func (s *Service) Session(ctx context.Context, token string) (*Session, error) {
	return s.sessions.Get(ctx, token)
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}
