package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/algobasket/hissabbook-api-system/internal/domain"
	"github.com/algobasket/hissabbook-api-system/pkg/response"
	"github.com/algobasket/hissabbook-api-system/pkg/utils"
	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

func (h *AuthHandler) HandleRequestPhoneOTP(w http.ResponseWriter, r *http.Request) {
	var req RequestPhoneOTP
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Phone == "" {
		response.Error(w, http.StatusBadRequest, "Phone is required")
		return
	}

	identity, expiresAt, err := h.otpUC.RequestPhoneOTP(r.Context(), req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}

	masked := utils.MaskIdentity(identity)
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message":    fmt.Sprintf("OTP sent to %s via sms", masked),
		"channel":    string(domain.ChannelSMS),
		"expires_at": expiresAt,
	})
}

func (h *AuthHandler) HandleRequestEmailOTP(w http.ResponseWriter, r *http.Request) {
	var req RequestEmailOTP
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		response.Error(w, http.StatusBadRequest, "Email is required")
		return
	}

	identity, expiresAt, err := h.otpUC.RequestEmailOTP(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	masked := utils.MaskIdentity(identity)
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message":    fmt.Sprintf("OTP sent to %s via email", masked),
		"channel":    string(domain.ChannelEmail),
		"expires_at": expiresAt,
	})
}

func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Code == "" {
		response.Error(w, http.StatusBadRequest, "OTP code is required")
		return
	}

	channel, raw, err := otpIdentity(req.Phone, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.verifyByChannel(r, channel, raw, req.Code); err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"message": "OTP verified successfully",
	})
}

// HandleOTPLogin verifies the code, then resolves the identity to an
// account and signs a session for it. A brand new caller comes out the
// other side with a usable account.
func (h *AuthHandler) HandleOTPLogin(w http.ResponseWriter, r *http.Request) {
	var req OTPLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Code == "" {
		response.Error(w, http.StatusBadRequest, "OTP code is required")
		return
	}

	channel, raw, err := otpIdentity(req.Phone, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	identity, err := h.verifyByChannel(r, channel, raw, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.userUC.ResolveOrCreate(r.Context(), channel, identity, domain.ProfileHints{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if res.EnrichmentErr != nil {
		h.logger.Warn("otp login completed with partial enrichment",
			zap.String("user_id", res.User.ID),
			zap.Error(res.EnrichmentErr))
	}

	token, err := h.userUC.IssueSession(res.User)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	response.JSON(w, status, map[string]interface{}{
		"token": token,
		"user":  res.User,
	})
}

func (h *AuthHandler) verifyByChannel(r *http.Request, channel domain.Channel, raw, code string) (string, error) {
	if channel == domain.ChannelSMS {
		return h.otpUC.VerifyPhoneOTP(r.Context(), raw, code)
	}
	return h.otpUC.VerifyEmailOTP(r.Context(), raw, code)
}

// otpIdentity picks the identity channel off a request body. Exactly one of
// phone or email must be set.
func otpIdentity(phone, email string) (domain.Channel, string, error) {
	switch {
	case phone != "" && email != "":
		return "", "", fmt.Errorf("%w: provide phone or email, not both", xerrors.ErrInvalidRequest)
	case phone != "":
		return domain.ChannelSMS, phone, nil
	case email != "":
		return domain.ChannelEmail, email, nil
	default:
		return "", "", xerrors.ErrIdentifierRequired
	}
}
