package services

import (
	"strings"

	"github.com/anonto42/wagwan/backend/internal/models"
	"github.com/anonto42/wagwan/backend/pkg/livekit"
	"github.com/anonto42/wagwan/backend/validators"
)

// TokenSigner produces credentials for the hosted media service.
type TokenSigner interface {
	Sign(req livekit.AccessRequest) (string, error)
}

// RoomTokens hands out media-room credentials. Token semantics (expiry,
// room naming) belong to the media service.
type RoomTokens struct {
	signer    TokenSigner
	validator *validators.Validator
}

func NewRoomTokens(signer TokenSigner, validator *validators.Validator) *RoomTokens {
	return &RoomTokens{signer: signer, validator: validator}
}

// IssueRoomToken grants userId entry to roomName. Everyone may subscribe;
// only publishers may publish.
func (s *RoomTokens) IssueRoomToken(req models.RoomTokenRequest) (*models.RoomToken, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.Username = strings.TrimSpace(req.Username)
	req.RoomName = strings.TrimSpace(req.RoomName)
	if err := s.validator.Validate(req); err != nil {
		return nil, newValidationError(err)
	}

	token, err := s.signer.Sign(livekit.AccessRequest{
		Identity:   req.UserID,
		Name:       req.Username,
		Room:       req.RoomName,
		CanPublish: req.IsPublisher,
	})
	if err != nil {
		return nil, newExternalError("failed to generate room token", err)
	}
	return &models.RoomToken{Token: token, RoomName: req.RoomName}, nil
}
