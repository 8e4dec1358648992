package bot

import (
	"errors"
	"fmt"

	"santabot/internal/services"
	"santabot/internal/telegram"
	"santabot/pkg/models"

	"github.com/rs/zerolog/log"
)

// Sender is the outbound side of the chat transport
type Sender interface {
	SendMessage(chatID int64, text string) error
	CopyMessage(toChatID, fromChatID, messageID int64) error
}

// Handler composes user-facing replies around the pairing engine: it saves
// registration input, fans out "your recipient joined" notices and relays
// gift content anonymously
type Handler struct {
	pairing *services.PairingService
	sender  Sender
}

// NewHandler creates a new bot handler
func NewHandler(pairing *services.PairingService, sender Sender) *Handler {
	return &Handler{pairing: pairing, sender: sender}
}

// NameResult reports the outcome of a name submission
type NameResult struct {
	HasRecipient bool
}

const (
	msgGenericError    = "❌ Something went wrong. Please try again later."
	msgLinkError       = "❌ Could not assign your recipient. Please try again later."
	msgSelfAssignment  = "❌ You cannot be your own Secret Santa. Please enter someone else's name."
	msgRecipientJoined = "🎉 Your recipient %s has joined the bot!\n\nYou can now send them your gift code with /send"
	msgAskRecipient    = "🎄 Great! Your name: %s\n\nNow enter the full name of your gift recipient:"
	msgNothingToSend   = "❌ There is nothing to deliver in that message. Send text, a photo or a document."
	msgRelayFailed     = "❌ Could not deliver your gift code. Please try again later."
	msgRelayDone       = "🎁 Your gift code has been delivered to your recipient!"
	msgNoRecipientYet  = "❌ Could not find your recipient. They may not have joined the bot yet."
)

func completionMessage(recipient *models.Participant) string {
	status := "⏳ Your recipient has not joined the bot yet. We will notify you when they do."
	if recipient.IsReachable() {
		status = "✅ Your recipient is already in the bot! Send your gift code with /send"
	}
	return fmt.Sprintf("🎅 Registration complete!\n\n✅ You have a gift recipient assigned!\n\n%s\n\n📋 Next steps:\n1️⃣ Get the gift code from the app\n2️⃣ Send it to your recipient with /send\n3️⃣ Wait for a code from your own Secret Santa!", status)
}

// HandleNameInput stores the participant's own name, notifies everyone who
// was waiting for them to become reachable and either completes registration
// or asks for a recipient name
func (h *Handler) HandleNameInput(chatID int64, name string) (NameResult, error) {
	participant, err := h.pairing.UpsertByIdentity(chatID, name)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to save participant name")
		h.reply(chatID, msgGenericError)
		return NameResult{}, err
	}

	log.Info().
		Int64("chat_id", chatID).
		Str("name", participant.Name).
		Str("participant_id", participant.ID.String()).
		Msg("Participant name saved")

	h.notifySenders(chatID, participant)

	if participant.Recipient != nil {
		if err := h.sender.SendMessage(chatID, completionMessage(participant.Recipient)); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send completion reply")
			return NameResult{HasRecipient: true}, err
		}
		return NameResult{HasRecipient: true}, nil
	}

	if err := h.sender.SendMessage(chatID, fmt.Sprintf(msgAskRecipient, participant.Name)); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send recipient prompt")
		return NameResult{}, err
	}
	return NameResult{HasRecipient: false}, nil
}

// notifySenders tells everyone whose recipient just became reachable.
// Each attempt is isolated: one dead chat never blocks the rest.
func (h *Handler) notifySenders(chatID int64, registered *models.Participant) {
	senders, err := h.pairing.FindSendersForReceiver(chatID)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to find senders for notification")
		return
	}

	for _, sender := range senders {
		if sender.ChatID == nil {
			continue
		}
		if err := h.sender.SendMessage(*sender.ChatID, fmt.Sprintf(msgRecipientJoined, registered.Name)); err != nil {
			log.Error().Err(err).Str("sender", sender.Name).Msg("Failed to notify sender")
			continue
		}
		log.Info().Str("sender", sender.Name).Str("recipient", registered.Name).Msg("Notified sender that recipient joined")
	}
}

// HandleRecipientInput assigns the named recipient to the caller and reports
// whether the recipient is reachable yet
func (h *Handler) HandleRecipientInput(chatID int64, recipientName string) error {
	participant, err := h.pairing.LinkByName(chatID, recipientName)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to link recipient")
		if errors.Is(err, services.ErrSelfAssignment) {
			h.reply(chatID, msgSelfAssignment)
		} else {
			h.reply(chatID, msgLinkError)
		}
		return err
	}

	log.Info().Str("sender", participant.Name).Str("recipient", participant.Recipient.Name).Msg("Recipient linked")

	if err := h.sender.SendMessage(chatID, completionMessage(participant.Recipient)); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send completion reply")
		return err
	}
	return nil
}

// HandleContentRelay copies the pending message to the caller's recipient
// without revealing who sent it. Unknown callers, missing recipients and
// recipients without a chat identity are expected races, answered with a
// reply and no error
func (h *Handler) HandleContentRelay(chatID int64, msg *telegram.Message) error {
	participant, err := h.pairing.ResolveByChatID(chatID)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to resolve sender for relay")
		h.reply(chatID, msgGenericError)
		return err
	}

	if participant == nil || participant.Recipient == nil || !participant.Recipient.IsReachable() {
		h.reply(chatID, msgNoRecipientYet)
		return nil
	}

	if !msg.HasContent() {
		h.reply(chatID, msgNothingToSend)
		return nil
	}

	if err := h.sender.CopyMessage(*participant.Recipient.ChatID, chatID, msg.MessageID); err != nil {
		log.Error().Err(err).Str("sender", participant.Name).Msg("Failed to relay gift content")
		h.reply(chatID, msgRelayFailed)
		return err
	}

	log.Info().
		Str("sender", participant.Name).
		Int64("recipient_chat_id", *participant.Recipient.ChatID).
		Msg("Gift content relayed")

	if err := h.sender.SendMessage(chatID, msgRelayDone); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to confirm relay")
		return err
	}
	return nil
}

// reply sends a best-effort message, logging delivery failures
func (h *Handler) reply(chatID int64, text string) {
	if err := h.sender.SendMessage(chatID, text); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}
