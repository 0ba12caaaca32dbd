package handler

import (
	"go.uber.org/zap"

	"github.com/algobasket/hissabbook-api-system/internal/usecase"
)

type AuthHandler struct {
	otpUC  *usecase.OTPUseCase
	userUC *usecase.UserUseCase
	logger *zap.Logger
}

func NewAuthHandler(
	otpUC *usecase.OTPUseCase,
	userUC *usecase.UserUseCase,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		otpUC:  otpUC,
		userUC: userUC,
		logger: logger,
	}
}
