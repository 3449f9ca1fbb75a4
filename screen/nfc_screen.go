package screen

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/dotside-studios/davi-tap-lab/nfc"
)

// DefaultBroadcastText is the initial broadcast input.
const DefaultBroadcastText = "Hello NFC!"

// Notice texts shown by the NFC screen.
const (
	noticeError           = "Error"
	noticeReadFailed      = "Failed to read NFC"
	noticeEncodeFailed    = "Failed to encode NFC message"
	noticeBroadcastFailed = "Failed to broadcast NFC"
	noticeBroadcasted     = "Broadcasted!"
	noticeSent            = "Message sent via NFC"
)

// ParseFailedMessage is the message shown for a text record that is not a
// JSON payload.
const ParseFailedMessage = "Failed to parse JSON"

// Technology is the NDEF session surface of the radio driver.
type Technology interface {
	RequestTechnology(ctx context.Context, tech nfc.Tech) error
	GetTag() (*nfc.TagDescriptor, error)
	WriteNdefMessage(message []byte) error
	CancelTechnologyRequest() error
}

// TextCodec builds and decodes text records. EncodeMessage returns nil when
// the records cannot be encoded.
type TextCodec interface {
	TextRecord(text string) nfc.NDEFRecord
	EncodeMessage(records ...nfc.NDEFRecord) []byte
	DecodeTextPayload(payload []byte) (string, error)
}

// NFCBusy is the running NFC operation, if any.
type NFCBusy string

const (
	NFCIdle    NFCBusy = ""
	NFCReading NFCBusy = "reading"
	NFCWriting NFCBusy = "writing"
)

// TagReadResult is the JSON payload stored on a tag by Broadcast.
type TagReadResult struct {
	Time    string `json:"time"`
	Message string `json:"message"`
}

// NFCState is a snapshot of the NFC screen.
type NFCState struct {
	Busy          NFCBusy        `json:"busy"`
	BroadcastText string         `json:"broadcastText"`
	Result        *TagReadResult `json:"result"`
	ResultTime    string         `json:"resultTime,omitempty"` // Result.Time formatted for display
	RawTag        string         `json:"rawTag,omitempty"`
}

// IsBusy reports whether the action controls are disabled.
func (s NFCState) IsBusy() bool {
	return s.Busy != NFCIdle
}

// BroadcastLabel is the caption of the broadcast control.
func (s NFCState) BroadcastLabel() string {
	if s.Busy == NFCWriting {
		return "Broadcasting..."
	}
	return "Broadcast JSON"
}

// ReadLabel is the caption of the read control.
func (s NFCState) ReadLabel() string {
	if s.Busy == NFCReading {
		return "Reading..."
	}
	return "Read NFC"
}

// NFCConfig wires an NFCScreen to its collaborators. Codec, Notifier and
// Clock are optional.
type NFCConfig struct {
	Technology    Technology
	Codec         TextCodec
	Notifier      Notifier
	Clock         Clock
	BroadcastText string
}

// NFCScreen drives one tag read or write at a time and always releases the
// technology session afterwards.
type NFCScreen struct {
	tech     Technology
	codec    TextCodec
	notifier Notifier
	clock    Clock

	mu      sync.Mutex
	state   NFCState
	closed  bool
	cancel  context.CancelFunc
	release func()

	subs broadcaster[NFCState]
}

func NewNFCScreen(cfg NFCConfig) *NFCScreen {
	if cfg.Codec == nil {
		cfg.Codec = nfc.Codec{Language: nfc.DefaultLanguage}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NotifierFunc(func(title, message string) {
			logger.Printf("%s: %s", title, message)
		})
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	if cfg.BroadcastText == "" {
		cfg.BroadcastText = DefaultBroadcastText
	}
	return &NFCScreen{
		tech:     cfg.Technology,
		codec:    cfg.Codec,
		notifier: cfg.Notifier,
		clock:    cfg.Clock,
		state:    NFCState{BroadcastText: cfg.BroadcastText},
	}
}

// Snapshot returns the current state.
func (s *NFCScreen) Snapshot() NFCState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel of state snapshots and a function that ends
// the subscription.
func (s *NFCScreen) Subscribe() (<-chan NFCState, func()) {
	return s.subs.subscribe()
}

// SetBroadcastText replaces the broadcast input. The input is locked while
// an operation runs.
func (s *NFCScreen) SetBroadcastText(text string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state.IsBusy() {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state.BroadcastText = text
	snap := s.state
	s.mu.Unlock()

	s.subs.publish(snap)
	return nil
}

// begin marks the screen busy and returns the context of the attempt and a
// release function that cancels the technology request at most once.
func (s *NFCScreen) begin(ctx context.Context, busy NFCBusy) (context.Context, func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil, ErrClosed
	}
	if s.state.IsBusy() {
		s.mu.Unlock()
		return nil, nil, ErrBusy
	}

	opCtx, cancel := context.WithCancel(ctx)
	var once sync.Once
	release := func() {
		once.Do(func() {
			if err := s.tech.CancelTechnologyRequest(); err != nil {
				logger.Printf("Releasing NFC session: %v", err)
			}
		})
	}

	s.state.Busy = busy
	s.cancel = cancel
	s.release = release
	snap := s.state
	s.mu.Unlock()

	s.subs.publish(snap)
	return opCtx, release, nil
}

// finish releases the session and only then clears the busy flag, so a
// new operation never starts while the previous session is still held.
func (s *NFCScreen) finish(release func()) {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	release()

	s.mu.Lock()
	s.cancel = nil
	s.release = nil
	s.state.Busy = NFCIdle
	snap := s.state
	s.mu.Unlock()

	s.subs.publish(snap)
}

func (s *NFCScreen) update(fn func(*NFCState)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state
	s.mu.Unlock()
	s.subs.publish(snap)
}

func (s *NFCScreen) alert(title, message string) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	s.notifier.Alert(title, message)
}

// Read acquires a tag, shows its descriptor and decodes the first record as
// a TagReadResult. Acquisition and read failures raise a notice; only busy
// and closed screens return an error.
func (s *NFCScreen) Read(ctx context.Context) error {
	opCtx, release, err := s.begin(ctx, NFCReading)
	if err != nil {
		return err
	}
	defer s.finish(release)

	if err := s.tech.RequestTechnology(opCtx, nfc.TechNdef); err != nil {
		logger.Printf("Read: request technology: %v", err)
		s.alert(noticeError, noticeReadFailed)
		return nil
	}
	tag, err := s.tech.GetTag()
	if err != nil {
		logger.Printf("Read: get tag: %v", err)
		s.alert(noticeError, noticeReadFailed)
		return nil
	}

	raw, err := json.MarshalIndent(tag, "", "  ")
	if err != nil {
		logger.Printf("Read: describe tag: %v", err)
		s.alert(noticeError, noticeReadFailed)
		return nil
	}

	result := s.decodeResult(tag)
	s.update(func(st *NFCState) {
		st.RawTag = string(raw)
		st.Result = result
		st.ResultTime = ""
		if result != nil {
			st.ResultTime = FormatTime(result.Time)
		}
	})
	return nil
}

// decodeResult returns nil for a tag without records and the parse-failure
// sentinel when the first record is not a JSON payload.
func (s *NFCScreen) decodeResult(tag *nfc.TagDescriptor) *TagReadResult {
	if tag == nil || len(tag.NdefMessage) == 0 {
		return nil
	}

	text, err := s.codec.DecodeTextPayload(tag.NdefMessage[0].Payload)
	if err != nil {
		logger.Printf("Read: decode text record: %v", err)
		return &TagReadResult{Message: ParseFailedMessage}
	}

	var result *TagReadResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		logger.Printf("Read: parse payload %q: %v", text, err)
		return &TagReadResult{Message: ParseFailedMessage}
	}
	return result
}

// Broadcast writes {"time", "message"} as a single text record. An encoder
// that produces no bytes skips the write.
func (s *NFCScreen) Broadcast(ctx context.Context) error {
	opCtx, release, err := s.begin(ctx, NFCWriting)
	if err != nil {
		return err
	}
	defer s.finish(release)

	if err := s.tech.RequestTechnology(opCtx, nfc.TechNdef); err != nil {
		logger.Printf("Broadcast: request technology: %v", err)
		s.alert(noticeError, noticeBroadcastFailed)
		return nil
	}

	payload, err := s.payload()
	if err != nil {
		logger.Printf("Broadcast: build payload: %v", err)
		s.alert(noticeError, noticeEncodeFailed)
		return nil
	}

	message := s.codec.EncodeMessage(s.codec.TextRecord(payload))
	if len(message) == 0 {
		s.alert(noticeError, noticeEncodeFailed)
		return nil
	}

	if err := s.tech.WriteNdefMessage(message); err != nil {
		logger.Printf("Broadcast: write: %v", err)
		s.alert(noticeError, noticeBroadcastFailed)
		return nil
	}
	s.alert(noticeBroadcasted, noticeSent)
	return nil
}

func (s *NFCScreen) payload() (string, error) {
	s.mu.Lock()
	text := s.state.BroadcastText
	s.mu.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(TagReadResult{Time: broadcastTime(s.clock.Now()), Message: text}); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Close tears the screen down. A running operation is cancelled and its
// session released; an idle screen releases any session left behind.
// Close is idempotent.
func (s *NFCScreen) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel, release := s.cancel, s.release
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		release()
		return
	}
	if err := s.tech.CancelTechnologyRequest(); err != nil {
		logger.Printf("Close: releasing NFC session: %v", err)
	}
}
