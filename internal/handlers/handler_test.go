package handlers

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"product-mockup-studio/internal/app"
	"product-mockup-studio/internal/config"
	"product-mockup-studio/internal/gemini"
	"product-mockup-studio/internal/imagedata"
	"product-mockup-studio/internal/telegram"
)

type fakeMessenger struct {
	mu        sync.Mutex
	texts     []string
	images    []imagedata.Image
	callbacks []string
	downloads map[string]imagedata.Image
}

func (f *fakeMessenger) SendTyping(int64) {}

func (f *fakeMessenger) SendText(_ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) SendImage(_ int64, img imagedata.Image, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, img)
	return nil
}

func (f *fakeMessenger) SendTextWithKeyboard(_ int64, text string, _ telegram.InlineKeyboard) (int, error) {
	return 1, f.SendText(0, text)
}

func (f *fakeMessenger) EditTextWithKeyboard(_ int64, _ int, text string, _ telegram.InlineKeyboard) error {
	return f.SendText(0, text)
}

func (f *fakeMessenger) AnswerCallback(_ string, text string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, text)
	return nil
}

func (f *fakeMessenger) DownloadImage(_ context.Context, fileID string) (imagedata.Image, error) {
	return f.downloads[fileID], nil
}

func (f *fakeMessenger) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type imageModel struct{}

func (imageModel) Generate(_ context.Context, req gemini.Request) (gemini.Response, error) {
	if req.Mode == gemini.ModeImage {
		return gemini.Response{Images: []imagedata.Image{{MediaType: "image/png", Base64: "b3V0"}}}, nil
	}
	return gemini.Response{Text: "calm"}, nil
}

func newTestHandler() (*Handler, *fakeMessenger, *app.App) {
	a := app.Wire(config.Config{}, nil, imageModel{})
	tg := &fakeMessenger{downloads: map[string]imagedata.Image{
		"p": {MediaType: "image/jpeg", Base64: "cHJvZA=="},
		"s": {MediaType: "image/jpeg", Base64: "c3R5bGU="},
	}}
	return New(Options{Telegram: tg, Sessions: a.Sessions, Catalog: a.Catalog}), tg, a
}

func command(text string) telegram.Update {
	name := strings.Fields(text)[0]
	return telegram.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: 42},
		From:      &tgbotapi.User{ID: 7},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func photo(fileID, caption string) telegram.Update {
	return telegram.Update{Message: &tgbotapi.Message{
		MessageID: 2,
		Chat:      &tgbotapi.Chat{ID: 42},
		From:      &tgbotapi.User{ID: 7},
		Caption:   caption,
		Photo:     []tgbotapi.PhotoSize{{FileID: "thumb"}, {FileID: fileID}},
	}}
}

func TestGenerateWithoutProduct(t *testing.T) {
	h, tg, _ := newTestHandler()
	if err := h.HandleUpdate(context.Background(), command("/generate")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := tg.lastText(); got != "❌ Please upload a product image first." {
		t.Fatalf("reply = %q", got)
	}
}

func TestStyleCaptionEnablesStyleReference(t *testing.T) {
	h, tg, a := newTestHandler()
	if err := h.HandleUpdate(context.Background(), photo("s", "style")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	ws, ok := a.Sessions.Get("tg-42")
	if !ok {
		t.Fatalf("session not created")
	}
	s := ws.Settings()
	if !s.UseStyleReference || s.StyleImage.Base64 != "c3R5bGU=" || !s.ProductImage.IsZero() {
		t.Fatalf("unexpected settings: %+v", s)
	}
	if !strings.Contains(tg.lastText(), "style reference") {
		t.Fatalf("reply = %q", tg.lastText())
	}
}

func TestAlbumOfTwoIsProductAndStyle(t *testing.T) {
	h, _, a := newTestHandler()
	if err := h.processPhotos(context.Background(), 42, "", []string{"p", "s"}); err != nil {
		t.Fatalf("process: %v", err)
	}
	ws, _ := a.Sessions.Get("tg-42")
	s := ws.Settings()
	if s.ProductImage.Base64 != "cHJvZA==" || s.StyleImage.Base64 != "c3R5bGU=" || !s.UseStyleReference {
		t.Fatalf("unexpected settings: %+v", s)
	}
}

func TestGenerateAndModifyFlow(t *testing.T) {
	h, tg, a := newTestHandler()
	ctx := context.Background()

	for _, u := range []telegram.Update{photo("p", ""), command("/png on"), command("/set surface light oak"), command("/generate")} {
		if err := h.HandleUpdate(ctx, u); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if len(tg.images) != 1 {
		t.Fatalf("expected one image, got %d (last reply %q)", len(tg.images), tg.lastText())
	}
	ws, _ := a.Sessions.Get("tg-42")
	if s := ws.Settings(); !s.OutputPNG || s.Surface != "Light oak" {
		t.Fatalf("settings not applied: png=%v surface=%q", s.OutputPNG, s.Surface)
	}

	text := telegram.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}, From: &tgbotapi.User{ID: 7}, Text: "make it warmer"}}
	if err := h.HandleUpdate(ctx, text); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(tg.images) != 2 || len(ws.History().List()) != 2 {
		t.Fatalf("modify did not produce a new image")
	}
}

func TestToggleRejectsBadArgument(t *testing.T) {
	h, tg, _ := newTestHandler()
	if err := h.HandleUpdate(context.Background(), command("/vibe maybe")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := tg.lastText(); got != "❌ Usage: /vibe on|off" {
		t.Fatalf("reply = %q", got)
	}
}

func TestCallbackFromAnotherUser(t *testing.T) {
	h, tg, _ := newTestHandler()
	q := &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 99},
		Message: &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: 42}},
		Data:    cb(7, "toggle", "png"),
	}
	if err := h.HandleUpdate(context.Background(), telegram.Update{CallbackQuery: q}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(tg.callbacks) != 1 || !strings.Contains(tg.callbacks[0], "someone else") {
		t.Fatalf("callbacks = %v", tg.callbacks)
	}
}

func TestCallbackSetsValue(t *testing.T) {
	h, _, a := newTestHandler()
	opts := a.Catalog.Options()
	fi := -1
	for i, o := range opts {
		if o.Field == "shadow" {
			fi = i
		}
	}
	q := &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: 42}},
		Data:    cb(7, "value", strconv.Itoa(fi), "1"),
	}
	if err := h.HandleUpdate(context.Background(), telegram.Update{CallbackQuery: q}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	ws, _ := a.Sessions.Get("tg-42")
	if got := ws.Settings().Shadow; got != opts[fi].Values[1] {
		t.Fatalf("shadow = %q, want %q", got, opts[fi].Values[1])
	}
}

func TestCaptionRole(t *testing.T) {
	cases := map[string]photoRole{
		"":              roleProduct,
		"my new bottle": roleProduct,
		"Style":         roleStyle,
		"#style please": roleStyle,
		"layout":        roleLayout,
		"base for text": roleOverlayBase,
	}
	for caption, want := range cases {
		if got := captionRole(caption); got != want {
			t.Fatalf("captionRole(%q) = %v, want %v", caption, got, want)
		}
	}
}
