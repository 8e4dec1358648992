package services

import (
	"errors"
	"fmt"
	"strings"

	"santabot/internal/repo"
	"santabot/pkg/models"

	"github.com/rs/zerolog/log"
)

var (
	// ErrParticipantNotFound is returned when no record owns the given chat ID
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrSelfAssignment is returned when a participant names themselves as their recipient
	ErrSelfAssignment = errors.New("participant cannot be their own recipient")
)

// PairingService resolves participant identities and maintains the
// sender -> receiver graph. Name is the merge key: a record seeded by name is
// claimed when someone registers under that name, and naming an unknown
// person as a recipient creates their record ahead of them.
type PairingService struct {
	participantRepo *repo.ParticipantRepository
}

// NewPairingService creates a new pairing service
func NewPairingService(participantRepo *repo.ParticipantRepository) *PairingService {
	return &PairingService{participantRepo: participantRepo}
}

// BulkParticipant is one row of a batch import
type BulkParticipant struct {
	Name         string
	ReceiverName string
}

// UpsertByIdentity resolves the caller's own record when they submit their
// name. Lookup order: by name (claims a pre-seeded record, attaching the chat
// ID), then by chat ID (re-registration with a corrected name), then create.
// Returns the record with its recipient populated.
func (s *PairingService) UpsertByIdentity(chatID int64, name string) (*models.Participant, error) {
	name = strings.TrimSpace(name)

	participant, err := s.participantRepo.GetByName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up participant by name: %w", err)
	}

	if participant != nil {
		if participant.ChatID != nil && *participant.ChatID != chatID {
			log.Warn().
				Str("name", name).
				Int64("old_chat_id", *participant.ChatID).
				Int64("new_chat_id", chatID).
				Msg("Participant already linked to another chat, last write wins")
		}
		participant.ChatID = &chatID
		log.Info().Int64("chat_id", chatID).Str("name", name).Msg("Linking chat ID to participant")
	} else {
		participant, err = s.participantRepo.GetByChatID(chatID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up participant by chat ID: %w", err)
		}
		if participant != nil {
			participant.Name = name
			log.Info().Int64("chat_id", chatID).Str("name", name).Msg("Updating name for participant")
		} else {
			participant = &models.Participant{Name: name, ChatID: &chatID}
			log.Info().Int64("chat_id", chatID).Str("name", name).Msg("Creating new participant")
		}
	}

	if err := s.participantRepo.Update(participant); err != nil {
		return nil, fmt.Errorf("failed to save participant: %w", err)
	}

	return participant, nil
}

// LinkByName assigns a recipient to the caller. The caller must already be
// registered by chat ID; the recipient is resolved by name or created on the
// spot without a chat identity of their own.
func (s *PairingService) LinkByName(chatID int64, recipientName string) (*models.Participant, error) {
	sender, err := s.participantRepo.GetByChatID(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sender: %w", err)
	}
	if sender == nil {
		return nil, fmt.Errorf("%w: chat_id=%d", ErrParticipantNotFound, chatID)
	}

	recipient, err := s.findOrCreateByName(recipientName)
	if err != nil {
		return nil, err
	}

	if recipient.ID == sender.ID {
		return nil, ErrSelfAssignment
	}

	sender.RecipientID = &recipient.ID
	if err := s.participantRepo.Update(sender); err != nil {
		return nil, fmt.Errorf("failed to link recipient: %w", err)
	}

	log.Info().Str("sender", sender.Name).Str("recipient", recipient.Name).Msg("Linked recipient")
	return sender, nil
}

// findOrCreateByName resolves a participant by name, creating a placeholder
// record when none exists. This is the single place where a record comes into
// being as the side effect of someone else naming them.
func (s *PairingService) findOrCreateByName(name string) (*models.Participant, error) {
	name = strings.TrimSpace(name)

	participant, err := s.participantRepo.GetByName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up recipient: %w", err)
	}
	if participant != nil {
		return participant, nil
	}

	participant = &models.Participant{Name: name}
	if err := s.participantRepo.Create(participant); err != nil {
		return nil, fmt.Errorf("failed to create recipient: %w", err)
	}
	log.Info().Str("name", name).Msg("Created placeholder record for recipient")
	return participant, nil
}

// ResolveByChatID returns the participant for a chat with their recipient
// populated, or nil when the chat is unknown
func (s *PairingService) ResolveByChatID(chatID int64) (*models.Participant, error) {
	return s.participantRepo.GetByChatIDWithRecipient(chatID)
}

// FindSendersForReceiver returns everyone whose recipient is the participant
// behind the given chat, each with their own recipient populated. Empty when
// the chat is unknown.
func (s *PairingService) FindSendersForReceiver(chatID int64) ([]models.Participant, error) {
	participant, err := s.participantRepo.GetByChatID(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up participant: %w", err)
	}
	if participant == nil {
		return nil, nil
	}
	return s.participantRepo.FindSendersFor(participant.ID)
}

// HasSecretSanta reports whether anyone has been assigned to give a gift to
// the participant behind the given chat
func (s *PairingService) HasSecretSanta(chatID int64) (bool, error) {
	participant, err := s.participantRepo.GetByChatID(chatID)
	if err != nil {
		return false, fmt.Errorf("failed to look up participant: %w", err)
	}
	if participant == nil {
		return false, nil
	}
	return s.participantRepo.HasSenderFor(participant.ID)
}

// BulkCreate seeds participants from a batch in two passes: first every name
// is created if absent, then links are resolved by name only. The two-pass
// split tolerates rows that name a receiver declared further down the batch.
// Unresolvable senders or receivers in the link pass are skipped and logged,
// never fatal.
func (s *PairingService) BulkCreate(items []BulkParticipant) (created int, linked int, err error) {
	for _, item := range items {
		name := strings.TrimSpace(item.Name)

		existing, err := s.participantRepo.GetByName(name)
		if err != nil {
			return created, linked, fmt.Errorf("failed to look up participant %q: %w", name, err)
		}
		if existing != nil {
			log.Info().Str("name", name).Msg("Participant already exists, skipping")
			continue
		}

		if err := s.participantRepo.Create(&models.Participant{Name: name}); err != nil {
			return created, linked, fmt.Errorf("failed to create participant %q: %w", name, err)
		}
		created++
		log.Info().Str("name", name).Msg("Created participant")
	}

	for _, item := range items {
		if strings.TrimSpace(item.ReceiverName) == "" {
			continue
		}

		sender, err := s.participantRepo.GetByName(strings.TrimSpace(item.Name))
		if err != nil {
			return created, linked, fmt.Errorf("failed to look up sender %q: %w", item.Name, err)
		}
		receiver, err := s.participantRepo.GetByName(strings.TrimSpace(item.ReceiverName))
		if err != nil {
			return created, linked, fmt.Errorf("failed to look up receiver %q: %w", item.ReceiverName, err)
		}

		if sender == nil {
			log.Warn().Str("name", item.Name).Msg("Sender not found, skipping link")
			continue
		}
		if receiver == nil {
			log.Warn().Str("name", item.ReceiverName).Msg("Receiver not found, skipping link")
			continue
		}
		if sender.ID == receiver.ID {
			log.Warn().Str("name", sender.Name).Msg("Row links participant to themselves, skipping")
			continue
		}

		sender.RecipientID = &receiver.ID
		if err := s.participantRepo.Update(sender); err != nil {
			return created, linked, fmt.Errorf("failed to link %q -> %q: %w", sender.Name, receiver.Name, err)
		}
		linked++
		log.Info().Str("sender", sender.Name).Str("receiver", receiver.Name).Msg("Linked receiver")
	}

	return created, linked, nil
}
