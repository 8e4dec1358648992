package bot

import (
	"fmt"
	"strings"
	"sync"

	"santabot/internal/services"
	"santabot/internal/telegram"
	"santabot/pkg/models"

	"github.com/rs/zerolog/log"
)

// State identifies where a chat is in the registration flow
type State int

const (
	StateIdle State = iota
	StateAwaitingName
	StateAwaitingRecipient
	StateAwaitingContent
)

const (
	msgWelcome          = "🎅 Welcome to Secret Santa!\n\nPlease enter your full name:\n\n💡 Example: Ivanov Ivan Ivanovich"
	msgAskContent       = "🎁 Send the gift code from the app:"
	msgNotRegistered    = "❌ You are not registered. Use /start to register."
	msgNoRecipient      = "❌ You have no gift recipient assigned yet."
	msgRecipientNotHere = "❌ Your gift recipient has not joined the bot yet."
	msgStatusFooter     = "\n📋 Use /send to deliver the gift code to your recipient"
)

// Dispatcher routes incoming chat updates by per-chat conversation state.
// State lives in process memory only: a restart drops pending prompts and the
// participant's next command re-arms the flow.
type Dispatcher struct {
	pairing *services.PairingService
	handler *Handler
	sender  Sender

	mu     sync.Mutex
	states map[int64]State
}

// NewDispatcher creates a new update dispatcher
func NewDispatcher(pairing *services.PairingService, handler *Handler, sender Sender) *Dispatcher {
	return &Dispatcher{
		pairing: pairing,
		handler: handler,
		sender:  sender,
		states:  make(map[int64]State),
	}
}

// State returns the current conversation state for a chat
func (d *Dispatcher) State(chatID int64) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.states[chatID]
}

func (d *Dispatcher) setState(chatID int64, s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s == StateIdle {
		delete(d.states, chatID)
		return
	}
	d.states[chatID] = s
}

// HandleUpdate processes one incoming update
func (d *Dispatcher) HandleUpdate(update telegram.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	switch {
	case msg.Text == "/start" || strings.HasPrefix(msg.Text, "/start "):
		d.handleStart(chatID, msg)
	case msg.Text == "/send":
		d.handleSendCommand(chatID)
	case strings.HasPrefix(msg.Text, "/"):
		// unrecognized commands are ignored, never treated as text input
	case msg.Text != "":
		d.handleText(chatID, msg)
	default:
		d.handleMedia(chatID, msg)
	}
}

func (d *Dispatcher) handleStart(chatID int64, msg *telegram.Message) {
	log.Info().Int64("chat_id", chatID).Str("username", msg.From.Username).Msg("Start command received")

	participant, err := d.pairing.ResolveByChatID(chatID)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to resolve participant on start")
		d.reply(chatID, msgGenericError)
		return
	}

	if participant != nil {
		d.reply(chatID, d.statusSummary(chatID, participant))
		return
	}

	d.setState(chatID, StateAwaitingName)
	d.reply(chatID, msgWelcome)
}

// statusSummary renders the returning-participant greeting: own registration,
// recipient reachability and whether their own Secret Santa is known yet
func (d *Dispatcher) statusSummary(chatID int64, participant *models.Participant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎅 Welcome back, %s!\n\n", participant.Name)

	switch {
	case participant.Recipient == nil:
		b.WriteString("❌ You have no gift recipient assigned\n")
	case participant.Recipient.IsReachable():
		b.WriteString("✅ Your gift recipient has joined the bot\n")
	default:
		b.WriteString("⏳ Your gift recipient has not joined the bot yet\n")
	}

	hasSanta, err := d.pairing.HasSecretSanta(chatID)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to check secret santa status")
	}
	if hasSanta {
		b.WriteString("✅ Your Secret Santa is registered and can send you a gift\n")
	} else {
		b.WriteString("⏳ Your Secret Santa has not registered yet\n")
	}

	b.WriteString(msgStatusFooter)
	return b.String()
}

func (d *Dispatcher) handleSendCommand(chatID int64) {
	log.Info().Int64("chat_id", chatID).Msg("Send command received")

	participant, err := d.pairing.ResolveByChatID(chatID)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to resolve participant on send")
		d.reply(chatID, msgGenericError)
		return
	}

	switch {
	case participant == nil:
		d.reply(chatID, msgNotRegistered)
	case participant.Recipient == nil:
		d.reply(chatID, msgNoRecipient)
	case !participant.Recipient.IsReachable():
		d.reply(chatID, msgRecipientNotHere)
	default:
		d.setState(chatID, StateAwaitingContent)
		d.reply(chatID, msgAskContent)
	}
}

func (d *Dispatcher) handleText(chatID int64, msg *telegram.Message) {
	switch d.State(chatID) {
	case StateAwaitingName:
		// the wait flag is always cleared; a failed attempt is retried by
		// re-issuing /start, not by looping here
		result, err := d.handler.HandleNameInput(chatID, msg.Text)
		d.setState(chatID, StateIdle)
		if err == nil && !result.HasRecipient {
			d.setState(chatID, StateAwaitingRecipient)
		}
	case StateAwaitingRecipient:
		// reply already sent by the handler on both paths
		_ = d.handler.HandleRecipientInput(chatID, msg.Text)
		d.setState(chatID, StateIdle)
	case StateAwaitingContent:
		_ = d.handler.HandleContentRelay(chatID, msg)
		d.setState(chatID, StateIdle)
	}
}

func (d *Dispatcher) handleMedia(chatID int64, msg *telegram.Message) {
	if !msg.HasContent() {
		return
	}
	if d.State(chatID) != StateAwaitingContent {
		return
	}
	_ = d.handler.HandleContentRelay(chatID, msg)
	d.setState(chatID, StateIdle)
}

func (d *Dispatcher) reply(chatID int64, text string) {
	if err := d.sender.SendMessage(chatID, text); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}
