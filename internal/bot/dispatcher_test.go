package bot

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"santabot/internal/repo"
	"santabot/internal/services"
	"santabot/internal/telegram"
	"santabot/pkg/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

type copiedMessage struct {
	ToChatID   int64
	FromChatID int64
	MessageID  int64
}

// fakeSender records outbound traffic and can fail selected chats
type fakeSender struct {
	mu       sync.Mutex
	Sent     []sentMessage
	Copied   []copiedMessage
	FailSend map[int64]bool
	FailCopy bool
}

func (f *fakeSender) SendMessage(chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSend[chatID] {
		return errors.New("send failed")
	}
	f.Sent = append(f.Sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeSender) CopyMessage(toChatID, fromChatID, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCopy {
		return errors.New("copy failed")
	}
	f.Copied = append(f.Copied, copiedMessage{ToChatID: toChatID, FromChatID: fromChatID, MessageID: messageID})
	return nil
}

func (f *fakeSender) sentTo(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.Sent {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func newTestBot(t *testing.T) (*Dispatcher, *fakeSender, *services.PairingService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(models.GetAllModels()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	pairing := services.NewPairingService(repo.NewParticipantRepository(db))
	sender := &fakeSender{FailSend: make(map[int64]bool)}
	handler := NewHandler(pairing, sender)
	dispatcher := NewDispatcher(pairing, handler, sender)
	return dispatcher, sender, pairing
}

func textUpdate(chatID int64, messageID int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: messageID,
		Message: &telegram.Message{
			MessageID: messageID,
			From:      &telegram.User{ID: chatID},
			Chat:      telegram.Chat{ID: chatID},
			Text:      text,
		},
	}
}

func photoUpdate(chatID int64, messageID int64) telegram.Update {
	return telegram.Update{
		UpdateID: messageID,
		Message: &telegram.Message{
			MessageID: messageID,
			From:      &telegram.User{ID: chatID},
			Chat:      telegram.Chat{ID: chatID},
			Photo:     []telegram.PhotoSize{{FileID: "photo-1"}},
		},
	}
}

func TestStartPromptsUnknownParticipant(t *testing.T) {
	d, sender, _ := newTestBot(t)

	d.HandleUpdate(textUpdate(100, 1, "/start"))

	if d.State(100) != StateAwaitingName {
		t.Errorf("state = %v, want StateAwaitingName", d.State(100))
	}
	if len(sender.sentTo(100)) != 1 {
		t.Fatalf("expected a single welcome prompt, got %d messages", len(sender.sentTo(100)))
	}
}

func TestStartShowsStatusForKnownParticipant(t *testing.T) {
	d, sender, pairing := newTestBot(t)

	if _, err := pairing.UpsertByIdentity(100, "Ivanov Ivan"); err != nil {
		t.Fatal(err)
	}

	d.HandleUpdate(textUpdate(100, 1, "/start"))

	if d.State(100) != StateIdle {
		t.Errorf("known participant must stay idle, state = %v", d.State(100))
	}
	msgs := sender.sentTo(100)
	if len(msgs) != 1 {
		t.Fatalf("expected one status message, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0].Text, "Ivanov Ivan") {
		t.Errorf("status must greet by name, got %q", msgs[0].Text)
	}
}

func TestRegistrationFlowWithoutSeededRecipient(t *testing.T) {
	d, sender, pairing := newTestBot(t)

	d.HandleUpdate(textUpdate(100, 1, "/start"))
	d.HandleUpdate(textUpdate(100, 2, "Ivanov Ivan"))

	if d.State(100) != StateAwaitingRecipient {
		t.Fatalf("state = %v, want StateAwaitingRecipient", d.State(100))
	}

	d.HandleUpdate(textUpdate(100, 3, "Petrov Petr"))

	if d.State(100) != StateIdle {
		t.Errorf("state = %v, want StateIdle after recipient input", d.State(100))
	}

	p, err := pairing.ResolveByChatID(100)
	if err != nil {
		t.Fatal(err)
	}
	if p.Recipient == nil || p.Recipient.Name != "Petrov Petr" {
		t.Errorf("recipient = %+v, want Petrov Petr", p.Recipient)
	}

	last := sender.sentTo(100)[len(sender.sentTo(100))-1]
	if !strings.Contains(last.Text, "not joined") {
		t.Errorf("completion message should say the recipient has not joined, got %q", last.Text)
	}
}

func TestRegistrationSkipsRecipientPromptWhenSeeded(t *testing.T) {
	d, _, pairing := newTestBot(t)

	// seeded batch already paired Ivanov -> Petrov
	if _, _, err := pairing.BulkCreate([]services.BulkParticipant{
		{Name: "Ivanov Ivan", ReceiverName: "Petrov Petr"},
		{Name: "Petrov Petr"},
	}); err != nil {
		t.Fatal(err)
	}

	d.HandleUpdate(textUpdate(100, 1, "/start"))
	d.HandleUpdate(textUpdate(100, 2, "Ivanov Ivan"))

	if d.State(100) != StateIdle {
		t.Errorf("pre-paired participant must not be asked for a recipient, state = %v", d.State(100))
	}
}

func TestNotificationFanOut(t *testing.T) {
	d, sender, pairing := newTestBot(t)

	// two senders both point at Petrov, who is not registered yet
	if _, err := pairing.UpsertByIdentity(100, "Ivanov Ivan"); err != nil {
		t.Fatal(err)
	}
	if _, err := pairing.LinkByName(100, "Petrov Petr"); err != nil {
		t.Fatal(err)
	}
	if _, err := pairing.UpsertByIdentity(101, "Sidorov Sidor"); err != nil {
		t.Fatal(err)
	}
	if _, err := pairing.LinkByName(101, "Petrov Petr"); err != nil {
		t.Fatal(err)
	}

	// Petrov registers
	d.HandleUpdate(textUpdate(200, 1, "/start"))
	d.HandleUpdate(textUpdate(200, 2, "Petrov Petr"))

	for _, chatID := range []int64{100, 101} {
		msgs := sender.sentTo(chatID)
		if len(msgs) != 1 {
			t.Errorf("sender chat %d: expected exactly one notification, got %d", chatID, len(msgs))
			continue
		}
		if !strings.Contains(msgs[0].Text, "Petrov Petr") {
			t.Errorf("notification should name the recipient, got %q", msgs[0].Text)
		}
	}
}

func TestNotificationFanOutSurvivesFailure(t *testing.T) {
	d, sender, pairing := newTestBot(t)

	if _, err := pairing.UpsertByIdentity(100, "Ivanov Ivan"); err != nil {
		t.Fatal(err)
	}
	if _, err := pairing.LinkByName(100, "Petrov Petr"); err != nil {
		t.Fatal(err)
	}
	if _, err := pairing.UpsertByIdentity(101, "Sidorov Sidor"); err != nil {
		t.Fatal(err)
	}
	if _, err := pairing.LinkByName(101, "Petrov Petr"); err != nil {
		t.Fatal(err)
	}

	// first sender's chat is dead
	sender.FailSend[100] = true

	d.HandleUpdate(textUpdate(200, 1, "/start"))
	d.HandleUpdate(textUpdate(200, 2, "Petrov Petr"))

	if len(sender.sentTo(101)) != 1 {
		t.Errorf("failure on one chat must not suppress the other notification")
	}
}

func TestSendCommandPreconditions(t *testing.T) {
	d, sender, pairing := newTestBot(t)

	// unregistered
	d.HandleUpdate(textUpdate(100, 1, "/send"))
	if d.State(100) != StateIdle {
		t.Errorf("unregistered /send must not change state")
	}

	// registered, no recipient
	if _, err := pairing.UpsertByIdentity(100, "Ivanov Ivan"); err != nil {
		t.Fatal(err)
	}
	d.HandleUpdate(textUpdate(100, 2, "/send"))
	if d.State(100) != StateIdle {
		t.Errorf("/send without recipient must not change state")
	}

	// recipient exists but is unreachable
	if _, err := pairing.LinkByName(100, "Petrov Petr"); err != nil {
		t.Fatal(err)
	}
	d.HandleUpdate(textUpdate(100, 3, "/send"))
	if d.State(100) != StateIdle {
		t.Errorf("/send with unreachable recipient must not change state")
	}

	if len(sender.sentTo(100)) != 3 {
		t.Errorf("each rejected /send must produce a reply, got %d", len(sender.sentTo(100)))
	}

	// recipient registers, /send is accepted
	if _, err := pairing.UpsertByIdentity(200, "Petrov Petr"); err != nil {
		t.Fatal(err)
	}
	d.HandleUpdate(textUpdate(100, 4, "/send"))
	if d.State(100) != StateAwaitingContent {
		t.Errorf("state = %v, want StateAwaitingContent", d.State(100))
	}
}

func TestRelayIsAnonymous(t *testing.T) {
	d, sender, pairing := newTestBot(t)

	if _, err := pairing.UpsertByIdentity(100, "Ivanov Ivan"); err != nil {
		t.Fatal(err)
	}
	if _, err := pairing.LinkByName(100, "Petrov Petr"); err != nil {
		t.Fatal(err)
	}
	if _, err := pairing.UpsertByIdentity(200, "Petrov Petr"); err != nil {
		t.Fatal(err)
	}
	sender.Sent = nil // drop registration chatter

	d.HandleUpdate(textUpdate(100, 10, "/send"))
	d.HandleUpdate(photoUpdate(100, 11))

	if len(sender.Copied) != 1 {
		t.Fatalf("expected one copied message, got %d", len(sender.Copied))
	}
	copied := sender.Copied[0]
	if copied.ToChatID != 200 || copied.FromChatID != 100 || copied.MessageID != 11 {
		t.Errorf("copy = %+v, want to=200 from=100 message=11", copied)
	}

	// nothing sent to the recipient may name the sender or their chat
	for _, m := range sender.sentTo(200) {
		if strings.Contains(m.Text, "Ivanov") || strings.Contains(m.Text, "100") {
			t.Errorf("recipient-facing message leaks sender identity: %q", m.Text)
		}
	}

	// sender got a confirmation and is back to idle
	if d.State(100) != StateIdle {
		t.Errorf("state = %v, want StateIdle after relay", d.State(100))
	}
	msgs := sender.sentTo(100)
	if len(msgs) == 0 || !strings.Contains(msgs[len(msgs)-1].Text, "delivered") {
		t.Errorf("sender must receive a delivery confirmation")
	}
}

func TestRelayTextContent(t *testing.T) {
	d, sender, pairing := newTestBot(t)

	if _, err := pairing.UpsertByIdentity(100, "Ivanov Ivan"); err != nil {
		t.Fatal(err)
	}
	if _, err := pairing.LinkByName(100, "Petrov Petr"); err != nil {
		t.Fatal(err)
	}
	if _, err := pairing.UpsertByIdentity(200, "Petrov Petr"); err != nil {
		t.Fatal(err)
	}

	d.HandleUpdate(textUpdate(100, 10, "/send"))
	d.HandleUpdate(textUpdate(100, 11, "GIFT-CODE-1234"))

	if len(sender.Copied) != 1 {
		t.Fatalf("text content must be relayed, got %d copies", len(sender.Copied))
	}
}

func TestRelayFailureClearsWaitState(t *testing.T) {
	d, sender, pairing := newTestBot(t)

	if _, err := pairing.UpsertByIdentity(100, "Ivanov Ivan"); err != nil {
		t.Fatal(err)
	}
	if _, err := pairing.LinkByName(100, "Petrov Petr"); err != nil {
		t.Fatal(err)
	}
	if _, err := pairing.UpsertByIdentity(200, "Petrov Petr"); err != nil {
		t.Fatal(err)
	}

	sender.FailCopy = true

	d.HandleUpdate(textUpdate(100, 10, "/send"))
	d.HandleUpdate(photoUpdate(100, 11))

	if d.State(100) != StateIdle {
		t.Errorf("a failed relay must still clear the wait state, state = %v", d.State(100))
	}
	msgs := sender.sentTo(100)
	if len(msgs) == 0 {
		t.Fatalf("a failed relay must still produce a reply")
	}
}

func TestMediaIgnoredOutsideContentState(t *testing.T) {
	d, sender, _ := newTestBot(t)

	d.HandleUpdate(photoUpdate(100, 1))

	if len(sender.Sent) != 0 || len(sender.Copied) != 0 {
		t.Errorf("media in idle state must be a no-op")
	}
}

func TestUnknownCommandIgnored(t *testing.T) {
	d, sender, _ := newTestBot(t)

	d.HandleUpdate(textUpdate(100, 1, "/start"))
	sender.Sent = nil

	// a command must not be consumed as the pending name
	d.HandleUpdate(textUpdate(100, 2, "/help"))

	if d.State(100) != StateAwaitingName {
		t.Errorf("command input must not consume the name prompt, state = %v", d.State(100))
	}
	if len(sender.Sent) != 0 {
		t.Errorf("unknown commands produce no reply")
	}
}

func TestSelfAssignmentClearsWaitState(t *testing.T) {
	d, sender, _ := newTestBot(t)

	d.HandleUpdate(textUpdate(100, 1, "/start"))
	d.HandleUpdate(textUpdate(100, 2, "Ivanov Ivan"))
	d.HandleUpdate(textUpdate(100, 3, "Ivanov Ivan"))

	if d.State(100) != StateIdle {
		t.Errorf("failed recipient input must clear the wait state, state = %v", d.State(100))
	}

	msgs := sender.sentTo(100)
	last := msgs[len(msgs)-1]
	if !strings.Contains(last.Text, "own Secret Santa") {
		t.Errorf("self assignment should get its specific rejection, got %q", last.Text)
	}
}
