// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/voxchat-tui/internal/media"
	"github.com/jeranaias/voxchat-tui/internal/model"
	"github.com/jeranaias/voxchat-tui/internal/speech"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeGen struct {
	mu      sync.Mutex
	prompts []string
	mimes   []string
	reply   string
	err     error
	block   chan struct{} // when non-nil, Generate waits for a close
}

func (f *fakeGen) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.reply, f.err
}

func (f *fakeGen) GenerateWithMedia(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mimes = append(f.mimes, mimeType)
	f.mu.Unlock()
	return f.reply, f.err
}

func (f *fakeGen) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeStore struct {
	mu      sync.Mutex
	saved   map[string]*model.Conversation
	saves   int
	updates int
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: map[string]*model.Conversation{}}
}

func (f *fakeStore) Save(ctx context.Context, conv *model.Conversation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.saves++
	f.saved[conv.ID] = conv
	return conv.ID, nil
}

func (f *fakeStore) Update(ctx context.Context, conv *model.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.updates++
	f.saved[conv.ID] = conv
	return nil
}

func (f *fakeStore) Load(ctx context.Context, id string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.saved[id]
	if !ok {
		return nil, errors.New("conversation not found")
	}
	return conv, nil
}

func (f *fakeStore) List(ctx context.Context, limit int) ([]model.ConversationSummary, error) {
	return nil, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, id)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, query string, limit int) ([]model.ConversationSummary, error) {
	return nil, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Supported() bool { return true }

func (f *fakeTranscriber) Transcribe(ctx context.Context) (string, error) {
	return f.text, f.err
}

type fakeSpeaker struct {
	mu     sync.Mutex
	spoken []string
	stops  int
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string, onDone func(error)) {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
	if onDone != nil {
		onDone(nil)
	}
}

func (f *fakeSpeaker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeSpeaker) IsSpeaking() bool { return false }

func newTestOrchestrator(gen *fakeGen, opts ...func(*Config)) *Orchestrator {
	cfg := Config{
		Generator: gen,
		Store:     newFakeStore(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return New(cfg)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestNewOrchestratorStartsWithWelcome(t *testing.T) {
	o := newTestOrchestrator(&fakeGen{})

	msgs := o.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleAssistant, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Welcome to voxchat!")
	assert.Equal(t, "general", o.Persona().ID)
}

func TestSwitchPersonaAnnounces(t *testing.T) {
	o := newTestOrchestrator(&fakeGen{})

	announce, err := o.SwitchPersona("code")
	require.NoError(t, err)
	assert.Contains(t, announce.Content, "**Code Helper**")
	assert.Equal(t, "code", o.Persona().ID)

	_, err = o.SwitchPersona("nonexistent")
	assert.Error(t, err)
}

func TestNewChatResetsTranscript(t *testing.T) {
	gen := &fakeGen{reply: "hi"}
	o := newTestOrchestrator(gen)

	_, err := o.Send(context.Background(), "hello")
	require.NoError(t, err)
	require.Greater(t, len(o.Messages()), 1)

	announce := o.NewChat()
	msgs := o.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, announce.ID, msgs[0].ID)
	assert.Contains(t, msgs[0].Content, "New chat started")
	assert.False(t, o.IsSaved())
}

// =============================================================================
// TEXT FLOW
// =============================================================================

func TestSendAppendsUserAndReply(t *testing.T) {
	gen := &fakeGen{reply: "The answer is 42."}
	o := newTestOrchestrator(gen)

	reply, err := o.Send(context.Background(), "  what is the answer?  ")
	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", reply.Content)

	msgs := o.Messages()
	require.Len(t, msgs, 3) // welcome, user, reply
	assert.Equal(t, model.RoleUser, msgs[1].Role)
	assert.Equal(t, "what is the answer?", msgs[1].Content)
	assert.Equal(t, reply.ID, msgs[2].ID)
	assert.False(t, o.IsBusy())

	prompt := gen.lastPrompt()
	assert.Contains(t, prompt, o.Persona().SystemPrompt)
	assert.True(t, strings.HasSuffix(prompt, "User: what is the answer?\nAssistant:"))
}

func TestSendEmptyMessage(t *testing.T) {
	o := newTestOrchestrator(&fakeGen{})
	_, err := o.Send(context.Background(), "   \n  ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSendFailureProducesApology(t *testing.T) {
	gen := &fakeGen{err: errors.New("connection refused")}
	o := newTestOrchestrator(gen)

	reply, err := o.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, textFailureReply, reply.Content)
	assert.False(t, o.IsBusy())
}

func TestSendDiscardedAfterNewChat(t *testing.T) {
	gen := &fakeGen{reply: "stale reply", block: make(chan struct{})}
	o := newTestOrchestrator(gen)

	result := make(chan error, 1)
	go func() {
		_, err := o.Send(context.Background(), "slow question")
		result <- err
	}()

	// Wait for the request to be in flight, then move the conversation on.
	deadline := time.Now().Add(time.Second)
	for gen.lastPrompt() == "" && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	o.NewChat()
	close(gen.block)

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("send never returned")
	}

	for _, m := range o.Messages() {
		assert.NotEqual(t, "stale reply", m.Content)
	}
}

// =============================================================================
// MEDIA FLOW
// =============================================================================

func testImage() *media.Attachment {
	return &media.Attachment{
		Name:     "photo.png",
		MIMEType: "image/png",
		Data:     []byte{0x89, 0x50, 0x4e, 0x47},
	}
}

func TestSendMedia(t *testing.T) {
	gen := &fakeGen{reply: "A photo of a cat."}
	o := newTestOrchestrator(gen)

	reply, err := o.SendMedia(context.Background(), testImage(), "what is this?")
	require.NoError(t, err)
	assert.Equal(t, "A photo of a cat.", reply.Content)

	msgs := o.Messages()
	userMsg := msgs[1]
	assert.Equal(t, "what is this?", userMsg.Content)
	assert.Equal(t, "photo.png", userMsg.MediaName)
	assert.Equal(t, "image/png", userMsg.MediaType)
	assert.True(t, strings.HasPrefix(userMsg.MediaPreview, "data:image/png;base64,"))

	assert.Contains(t, gen.lastPrompt(), "User has shared an image.")
	assert.Equal(t, []string{"image/png"}, gen.mimes)
}

func TestSendMediaFailureCopyByKind(t *testing.T) {
	gen := &fakeGen{err: errors.New("boom")}
	o := newTestOrchestrator(gen)

	reply, err := o.SendMedia(context.Background(), testImage(), "")
	require.NoError(t, err)
	assert.Equal(t, imageFailureReply, reply.Content)

	video := &media.Attachment{Name: "clip.mp4", MIMEType: "video/mp4", Data: []byte{1}}
	reply, err = o.SendMedia(context.Background(), video, "")
	require.NoError(t, err)
	assert.Equal(t, videoFailureReply, reply.Content)

	pdf := &media.Attachment{Name: "doc.pdf", MIMEType: "application/pdf", Data: []byte{1}}
	reply, err = o.SendMedia(context.Background(), pdf, "")
	require.NoError(t, err)
	assert.Equal(t, fileFailureReply, reply.Content)
}

func TestFailureCopyFollowsResponseLanguage(t *testing.T) {
	gen := &fakeGen{err: errors.New("boom")}
	o := newTestOrchestrator(gen, func(cfg *Config) {
		cfg.Language = model.LangSwahili
	})

	reply, err := o.Send(context.Background(), "habari")
	require.NoError(t, err)
	assert.Equal(t, textFailureReplySW, reply.Content)
	assert.Contains(t, gen.lastPrompt(), "Respond ONLY in Swahili")

	reply, err = o.SendMedia(context.Background(), testImage(), "")
	require.NoError(t, err)
	assert.Equal(t, imageFailureReplySW, reply.Content)

	video := &media.Attachment{Name: "clip.mp4", MIMEType: "video/mp4", Data: []byte{1}}
	reply, err = o.SendMedia(context.Background(), video, "")
	require.NoError(t, err)
	assert.Equal(t, videoFailureReplySW, reply.Content)
}

// =============================================================================
// VOICE FLOW
// =============================================================================

func TestSendVoice(t *testing.T) {
	gen := &fakeGen{reply: "Nice to meet you."}
	speaker := &fakeSpeaker{}
	o := newTestOrchestrator(gen, func(c *Config) {
		c.Transcriber = &fakeTranscriber{text: "hello there"}
		c.Speaker = speaker
		c.SpeakReplies = true
	})

	reply, err := o.SendVoice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Nice to meet you.", reply.Content)

	msgs := o.Messages()
	require.Len(t, msgs, 3) // welcome, voice message, reply
	assert.Equal(t, model.VoicePrefix+"hello there", msgs[1].Content)
	assert.True(t, msgs[1].IsVoice())
	for _, m := range msgs {
		assert.False(t, m.Pending, "no placeholder may survive the flow")
	}

	// The prompt carries the bare transcript, not the microphone marker.
	assert.Contains(t, gen.lastPrompt(), "User: hello there\nAssistant:")
	assert.NotContains(t, gen.lastPrompt(), model.VoicePrefix)

	assert.Equal(t, []string{"Nice to meet you."}, speaker.spoken)
}

func TestSendVoiceTranscriptionFailure(t *testing.T) {
	recErr := &speech.RecognitionError{Kind: speech.KindNoSpeech, Message: "no speech"}
	o := newTestOrchestrator(&fakeGen{}, func(c *Config) {
		c.Transcriber = &fakeTranscriber{err: recErr}
	})

	failMsg, err := o.SendVoice(context.Background())
	require.Error(t, err)
	assert.Equal(t, speech.KindNoSpeech, speech.KindOf(err))
	require.NotNil(t, failMsg)
	assert.Equal(t, voiceFailureReply, failMsg.Content)

	msgs := o.Messages()
	require.Len(t, msgs, 2) // welcome, fallback
	for _, m := range msgs {
		assert.False(t, m.Pending)
	}
	assert.False(t, o.IsBusy())
}

func TestSendVoiceUnsupported(t *testing.T) {
	o := newTestOrchestrator(&fakeGen{})
	_, err := o.SendVoice(context.Background())
	assert.ErrorIs(t, err, speech.ErrUnsupported)
}

func TestVoiceErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&speech.RecognitionError{Kind: speech.KindNoSpeech}, "No speech was detected. Please try again."},
		{&speech.RecognitionError{Kind: speech.KindDevice}, "Audio capture failed. Please check your microphone."},
		{&speech.RecognitionError{Kind: speech.KindDenied}, "Microphone access denied. Please allow microphone access."},
		{&speech.RecognitionError{Kind: speech.KindNetwork}, "Network error occurred during speech recognition."},
		{&speech.RecognitionError{Kind: speech.KindAborted}, "Speech recognition was aborted."},
		{&speech.RecognitionError{Kind: speech.KindLanguage}, "Language not supported for speech recognition."},
		{speech.ErrTimeout, "Speech recognition timed out. Please try again."},
		{errors.New("mystery"), "Speech recognition error"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, VoiceErrorMessage(tt.err))
	}
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestSaveThenUpdate(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{reply: "reply"}
	o := newTestOrchestrator(gen, func(c *Config) { c.Store = store })

	_, err := o.Send(context.Background(), "first question")
	require.NoError(t, err)

	id, err := o.Save(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, o.ConversationID())
	assert.Equal(t, 1, store.saves)

	_, err = o.Send(context.Background(), "second question")
	require.NoError(t, err)

	id2, err := o.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, store.updates)
}

func TestDeleteActiveConversationDetaches(t *testing.T) {
	store := newFakeStore()
	o := newTestOrchestrator(&fakeGen{reply: "ok"}, func(c *Config) { c.Store = store })

	_, err := o.Send(context.Background(), "hello")
	require.NoError(t, err)
	id, err := o.Save(context.Background())
	require.NoError(t, err)

	require.NoError(t, o.Delete(context.Background(), id))
	assert.False(t, o.IsSaved())
	assert.NotEmpty(t, o.Messages(), "transcript stays on screen")
}

func TestLoadReplacesConversationAndPersona(t *testing.T) {
	store := newFakeStore()
	stored := model.NewConversation("code")
	stored.ID = "conv_deadbeef"
	stored.AddMessage(model.NewUserMessage("show me a loop"))
	store.saved[stored.ID] = stored

	o := newTestOrchestrator(&fakeGen{}, func(c *Config) { c.Store = store })

	conv, err := o.Load(context.Background(), "conv_deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "conv_deadbeef", conv.ID)
	assert.Equal(t, "code", o.Persona().ID)
	assert.Equal(t, "conv_deadbeef", o.ConversationID())

	msgs := o.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "show me a loop", msgs[0].Content)
}

// =============================================================================
// SPEECH CONTROL
// =============================================================================

func TestSpeakLastReply(t *testing.T) {
	speaker := &fakeSpeaker{}
	o := newTestOrchestrator(&fakeGen{reply: "spoken reply"}, func(c *Config) { c.Speaker = speaker })

	_, err := o.Send(context.Background(), "say something")
	require.NoError(t, err)

	require.NoError(t, o.SpeakLastReply(nil))
	assert.Equal(t, []string{"spoken reply"}, speaker.spoken)

	o.StopSpeaking()
	assert.Equal(t, 1, speaker.stops)
}
