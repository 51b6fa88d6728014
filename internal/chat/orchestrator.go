// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat owns the conversation state and drives the message flows:
// text, media, and voice input in, assistant replies out. The orchestrator
// is the only writer of the transcript; the UI renders snapshots.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/jeranaias/voxchat-tui/internal/media"
	"github.com/jeranaias/voxchat-tui/internal/model"
	"github.com/jeranaias/voxchat-tui/internal/speech"
)

// =============================================================================
// ERRORS AND USER-FACING COPY
// =============================================================================

var (
	// ErrEmptyMessage is returned when the user submits only whitespace.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrSuperseded is returned when a reply arrives for a conversation
	// state that no longer exists (new chat, load, or persona switch
	// happened while the request was in flight). The reply is discarded.
	ErrSuperseded = errors.New("response superseded by a newer conversation state")
)

// Assistant fallback replies shown in the transcript when a flow fails.
// Text, image, and video copy follows the configured response language;
// file and voice failures have English copy only.
const (
	textFailureReply    = "I apologize, but I'm experiencing some technical difficulties. Please try again in a moment."
	textFailureReplySW  = "Samahani, nina tatizo la kushughulikia ombi lako sasa hivi. Tafadhali jaribu tena baada ya muda."
	imageFailureReply   = "I'm having trouble analyzing this image right now. Please try again later."
	imageFailureReplySW = "Nina tatizo la kuchanganua picha hii sasa hivi. Tafadhali jaribu tena baadaye."
	videoFailureReply   = "I'm having trouble analyzing this video right now. Please try again later. Note: Video files should be under 10MB and in supported formats (MP4, WebM)."
	videoFailureReplySW = "Nina tatizo la kuchanganua video hii sasa hivi. Tafadhali jaribu tena baadaye. Kumbuka: Faili za video zinapaswa kuwa chini ya 10MB na katika muundo unaotumika (MP4, WebM)."
	fileFailureReply    = "I'm having trouble analyzing this file right now. Please try again later."
	voiceFailureReply   = "I couldn't process your voice message. Please try typing instead."
)

func textFailure(lang model.Language) string {
	if lang == model.LangSwahili {
		return textFailureReplySW
	}
	return textFailureReply
}

// VoiceErrorMessage maps a recognition failure onto status-line copy.
func VoiceErrorMessage(err error) string {
	if errors.Is(err, speech.ErrTimeout) {
		return "Speech recognition timed out. Please try again."
	}
	if errors.Is(err, speech.ErrUnsupported) {
		return "Speech recognition is not available."
	}
	switch speech.KindOf(err) {
	case speech.KindNoSpeech:
		return "No speech was detected. Please try again."
	case speech.KindDevice:
		return "Audio capture failed. Please check your microphone."
	case speech.KindDenied:
		return "Microphone access denied. Please allow microphone access."
	case speech.KindNetwork:
		return "Network error occurred during speech recognition."
	case speech.KindAborted:
		return "Speech recognition was aborted."
	case speech.KindLanguage:
		return "Language not supported for speech recognition."
	default:
		return "Speech recognition error"
	}
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Generator produces assistant replies. Implemented by gemini.Client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWithMedia(ctx context.Context, prompt, mimeType string, data []byte) (string, error)
}

// Transcriber converts a spoken utterance into text.
type Transcriber interface {
	Supported() bool
	Transcribe(ctx context.Context) (string, error)
}

// Speaker voices assistant replies aloud.
type Speaker interface {
	Speak(ctx context.Context, text string, onDone func(error))
	Stop()
	IsSpeaking() bool
}

// ConversationStore persists conversations. Implemented by store.Store.
type ConversationStore interface {
	Save(ctx context.Context, conv *model.Conversation) (string, error)
	Update(ctx context.Context, conv *model.Conversation) error
	Load(ctx context.Context, id string) (*model.Conversation, error)
	List(ctx context.Context, limit int) ([]model.ConversationSummary, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]model.ConversationSummary, error)
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Config holds orchestrator dependencies and tuning.
type Config struct {
	Generator   Generator
	Store       ConversationStore
	Transcriber Transcriber
	Speaker     Speaker

	// Persona to start in (default: the general persona).
	Persona string

	// HistoryTurns is how many prior messages feed the prompt (default: 10).
	HistoryTurns int

	// SpeakReplies voices replies to voice messages aloud.
	SpeakReplies bool

	// Language is the response language for replies and failure copy
	// (default: English).
	Language model.Language

	Logger *slog.Logger
}

// Orchestrator is the single owner of the active conversation. All
// transcript mutation happens here under one mutex; an epoch counter is
// bumped whenever the conversation is replaced or the persona changes, and
// replies generated against an older epoch are discarded.
type Orchestrator struct {
	gen          Generator
	store        ConversationStore
	transcriber  Transcriber
	speaker      Speaker
	historyTurns int
	speakReplies bool
	lang         model.Language
	logger       *slog.Logger

	mu      sync.Mutex
	conv    *model.Conversation
	persona model.Persona
	epoch   int
	busy    bool
	saved   bool
}

// New creates an orchestrator with a fresh conversation opened by the
// welcome announcement.
func New(cfg Config) *Orchestrator {
	persona := model.DefaultPersona()
	if cfg.Persona != "" {
		if p, ok := model.PersonaByID(cfg.Persona); ok {
			persona = p
		}
	}
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = model.LangEnglish
	}

	conv := model.NewConversation(persona.ID)
	conv.AddMessage(model.WelcomeMessage(persona))

	return &Orchestrator{
		gen:          cfg.Generator,
		store:        cfg.Store,
		transcriber:  cfg.Transcriber,
		speaker:      cfg.Speaker,
		historyTurns: cfg.HistoryTurns,
		speakReplies: cfg.SpeakReplies,
		lang:         cfg.Language,
		logger:       cfg.Logger,
		conv:         conv,
		persona:      persona,
	}
}

// =============================================================================
// STATE ACCESS
// =============================================================================

// Messages returns a snapshot of the transcript.
func (o *Orchestrator) Messages() []*model.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*model.Message, len(o.conv.Messages))
	copy(out, o.conv.Messages)
	return out
}

// Conversation returns a shallow copy of the active conversation, suitable
// for export and display.
func (o *Orchestrator) Conversation() *model.Conversation {
	o.mu.Lock()
	defer o.mu.Unlock()
	conv := *o.conv
	conv.Messages = make([]*model.Message, len(o.conv.Messages))
	copy(conv.Messages, o.conv.Messages)
	return &conv
}

// ConversationID returns the active conversation's ID.
func (o *Orchestrator) ConversationID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conv.ID
}

// IsSaved reports whether the active conversation exists in the store.
func (o *Orchestrator) IsSaved() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.saved
}

// Persona returns the active persona.
func (o *Orchestrator) Persona() model.Persona {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.persona
}

// IsBusy reports whether a reply is being generated.
func (o *Orchestrator) IsBusy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// =============================================================================
// CONVERSATION LIFECYCLE
// =============================================================================

// NewChat discards the current transcript and opens a fresh conversation in
// the active persona. In-flight replies are invalidated.
func (o *Orchestrator) NewChat() *model.Message {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.epoch++
	o.busy = false
	o.saved = false
	o.conv = model.NewConversation(o.persona.ID)
	announce := model.NewChatMessage(o.persona)
	o.conv.AddMessage(announce)
	return announce
}

// SwitchPersona changes the active persona and announces the switch in the
// transcript. In-flight replies are invalidated since they were generated
// with the old system prompt.
func (o *Orchestrator) SwitchPersona(id string) (*model.Message, error) {
	persona, ok := model.PersonaByID(id)
	if !ok {
		return nil, errors.New("unknown persona: " + id)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.epoch++
	o.busy = false
	o.persona = persona
	o.conv.Persona = persona.ID
	announce := model.SwitchMessage(persona)
	o.conv.AddMessage(announce)
	return announce, nil
}

// Load replaces the transcript with a stored conversation.
func (o *Orchestrator) Load(ctx context.Context, id string) (*model.Conversation, error) {
	conv, err := o.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	persona := model.DefaultPersona()
	if p, ok := model.PersonaByID(conv.Persona); ok {
		persona = p
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.epoch++
	o.busy = false
	o.saved = true
	o.conv = conv
	o.persona = persona
	return conv, nil
}

// Save persists the conversation, creating it on first save and updating
// in place afterwards. Returns the conversation ID; on partial failure the
// ID may be set alongside the error and a later Save repairs the remainder.
func (o *Orchestrator) Save(ctx context.Context) (string, error) {
	o.mu.Lock()
	conv := o.conv
	saved := o.saved
	o.mu.Unlock()

	if saved {
		return conv.ID, o.store.Update(ctx, conv)
	}

	id, err := o.store.Save(ctx, conv)
	if id != "" {
		o.mu.Lock()
		o.conv.ID = id
		o.saved = true
		o.mu.Unlock()
	}
	return id, err
}

// List returns stored conversation summaries, most recent first.
func (o *Orchestrator) List(ctx context.Context, limit int) ([]model.ConversationSummary, error) {
	return o.store.List(ctx, limit)
}

// Search finds stored conversations matching a query.
func (o *Orchestrator) Search(ctx context.Context, query string, limit int) ([]model.ConversationSummary, error) {
	return o.store.Search(ctx, query, limit)
}

// Delete removes a stored conversation. Deleting the active conversation
// keeps its transcript on screen but detaches it from the stored row.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	if err := o.store.Delete(ctx, id); err != nil {
		return err
	}
	o.mu.Lock()
	if o.conv.ID == id {
		o.saved = false
	}
	o.mu.Unlock()
	return nil
}

// =============================================================================
// TEXT FLOW
// =============================================================================

// Send submits a typed message and returns the assistant reply. Generation
// failures still produce a transcript entry with apology copy; only an
// empty message or a superseded reply returns an error.
func (o *Orchestrator) Send(ctx context.Context, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	o.mu.Lock()
	epoch := o.epoch
	persona := o.persona
	history := o.snapshotLocked()
	userMsg := model.NewUserMessage(text)
	userMsg.Persona = persona.ID
	o.conv.AddMessage(userMsg)
	o.busy = true
	o.mu.Unlock()

	prompt := model.BuildPrompt(persona, history, text, o.historyTurns, o.lang)
	reply, err := o.gen.Generate(ctx, prompt)
	if err != nil {
		o.logger.Warn("text generation failed", "error", err)
		reply = textFailure(o.lang)
	}

	return o.appendReply(epoch, persona, reply)
}

// =============================================================================
// MEDIA FLOW
// =============================================================================

// SendMedia submits an attachment with an optional caption and returns the
// assistant's analysis. The failure copy depends on the attachment kind.
func (o *Orchestrator) SendMedia(ctx context.Context, att *media.Attachment, caption string) (*model.Message, error) {
	caption = strings.TrimSpace(caption)

	o.mu.Lock()
	epoch := o.epoch
	persona := o.persona
	userMsg := o.mediaMessage(att, caption, persona)
	o.conv.AddMessage(userMsg)
	o.busy = true
	o.mu.Unlock()

	prompt := model.BuildMediaPrompt(persona, att.MIMEType, caption, o.lang)
	reply, err := o.gen.GenerateWithMedia(ctx, prompt, att.MIMEType, att.Data)
	if err != nil {
		o.logger.Warn("media generation failed", "name", att.Name, "type", att.MIMEType, "error", err)
		reply = mediaFailureReply(att, o.lang)
	}

	return o.appendReply(epoch, persona, reply)
}

// mediaMessage builds the transcript entry for a shared attachment.
func (o *Orchestrator) mediaMessage(att *media.Attachment, caption string, persona model.Persona) *model.Message {
	content := caption
	if content == "" {
		content = "Shared " + att.Name
	}
	msg := model.NewUserMessage(content)
	msg.Persona = persona.ID
	msg.MediaName = att.Name
	msg.MediaType = att.MIMEType
	if att.IsImage() {
		msg.MediaPreview = att.PreviewDataURI()
	}
	return msg
}

func mediaFailureReply(att *media.Attachment, lang model.Language) string {
	sw := lang == model.LangSwahili
	switch {
	case att.IsImage():
		if sw {
			return imageFailureReplySW
		}
		return imageFailureReply
	case att.IsVideo():
		if sw {
			return videoFailureReplySW
		}
		return videoFailureReply
	default:
		return fileFailureReply
	}
}

// =============================================================================
// VOICE FLOW
// =============================================================================

// SendVoice runs the voice pipeline: show a pending placeholder, transcribe,
// swap the placeholder for the transcript, generate a reply, and optionally
// speak it aloud. On transcription failure the placeholder is removed and a
// fallback assistant message is added; the classified error is returned so
// the caller can surface status copy.
func (o *Orchestrator) SendVoice(ctx context.Context) (*model.Message, error) {
	if o.transcriber == nil || !o.transcriber.Supported() {
		return nil, speech.ErrUnsupported
	}

	o.mu.Lock()
	epoch := o.epoch
	persona := o.persona
	placeholder := model.NewPendingVoiceMessage()
	placeholder.Persona = persona.ID
	o.conv.AddMessage(placeholder)
	o.busy = true
	o.mu.Unlock()

	transcript, err := o.transcriber.Transcribe(ctx)

	o.mu.Lock()
	if o.epoch != epoch {
		o.removeLocked(placeholder.ID)
		o.mu.Unlock()
		return nil, ErrSuperseded
	}
	o.removeLocked(placeholder.ID)
	if err != nil {
		o.busy = false
		failMsg := model.NewAssistantMessage(voiceFailureReply)
		failMsg.Persona = persona.ID
		o.conv.AddMessage(failMsg)
		o.mu.Unlock()
		o.logger.Warn("transcription failed", "kind", speech.KindOf(err).String(), "error", err)
		return failMsg, err
	}

	history := o.snapshotLocked()
	voiceMsg := model.NewVoiceMessage(transcript)
	voiceMsg.Persona = persona.ID
	o.conv.AddMessage(voiceMsg)
	o.mu.Unlock()

	// The prompt carries the bare transcript; the microphone marker is
	// presentation only.
	prompt := model.BuildPrompt(persona, history, transcript, o.historyTurns, o.lang)
	reply, genErr := o.gen.Generate(ctx, prompt)
	if genErr != nil {
		o.logger.Warn("voice reply generation failed", "error", genErr)
		reply = textFailure(o.lang)
	}

	msg, err := o.appendReply(epoch, persona, reply)
	if err != nil {
		return nil, err
	}
	if o.speakReplies && genErr == nil && o.speaker != nil {
		o.speaker.Speak(context.Background(), reply, nil)
	}
	return msg, nil
}

// =============================================================================
// SPEECH CONTROL
// =============================================================================

// SpeakLastReply voices the most recent assistant message.
func (o *Orchestrator) SpeakLastReply(onDone func(error)) error {
	if o.speaker == nil {
		return errors.New("speech output is not available")
	}

	o.mu.Lock()
	var last *model.Message
	for i := len(o.conv.Messages) - 1; i >= 0; i-- {
		if o.conv.Messages[i].Role == model.RoleAssistant {
			last = o.conv.Messages[i]
			break
		}
	}
	o.mu.Unlock()

	if last == nil {
		return errors.New("nothing to speak yet")
	}
	o.speaker.Speak(context.Background(), last.Content, onDone)
	return nil
}

// StopSpeaking halts any active speech output.
func (o *Orchestrator) StopSpeaking() {
	if o.speaker != nil {
		o.speaker.Stop()
	}
}

// IsSpeaking reports whether speech output is active.
func (o *Orchestrator) IsSpeaking() bool {
	return o.speaker != nil && o.speaker.IsSpeaking()
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

// snapshotLocked copies the current transcript. Callers hold mu.
func (o *Orchestrator) snapshotLocked() []*model.Message {
	out := make([]*model.Message, len(o.conv.Messages))
	copy(out, o.conv.Messages)
	return out
}

// removeLocked splices a message out of the transcript. Callers hold mu.
func (o *Orchestrator) removeLocked(id string) {
	msgs := o.conv.Messages
	for i, m := range msgs {
		if m.ID == id {
			o.conv.Messages = append(msgs[:i], msgs[i+1:]...)
			return
		}
	}
}

// appendReply adds an assistant message unless the conversation moved on
// while the reply was in flight.
func (o *Orchestrator) appendReply(epoch int, persona model.Persona, reply string) (*model.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.epoch != epoch {
		return nil, ErrSuperseded
	}
	o.busy = false

	msg := model.NewAssistantMessage(reply)
	msg.Persona = persona.ID
	o.conv.AddMessage(msg)
	return msg, nil
}
