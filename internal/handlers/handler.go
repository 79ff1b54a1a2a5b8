package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"product-mockup-studio/internal/catalog"
	"product-mockup-studio/internal/imagedata"
	"product-mockup-studio/internal/mediagroup"
	"product-mockup-studio/internal/overlay"
	"product-mockup-studio/internal/session"
	"product-mockup-studio/internal/telegram"
)

// Messenger is the part of the Telegram client the handler uses.
type Messenger interface {
	SendTyping(chatID int64)
	SendText(chatID int64, text string) error
	SendImage(chatID int64, img imagedata.Image, caption string) error
	SendTextWithKeyboard(chatID int64, text string, kb telegram.InlineKeyboard) (int, error)
	EditTextWithKeyboard(chatID int64, messageID int, text string, kb telegram.InlineKeyboard) error
	AnswerCallback(callbackID, text string, alert bool) error
	DownloadImage(ctx context.Context, fileID string) (imagedata.Image, error)
}

type Options struct {
	Telegram Messenger
	Sessions *session.Store
	Catalog  *catalog.Catalog
	Logger   *slog.Logger
}

type Handler struct {
	tg         Messenger
	sessions   *session.Store
	catalog    *catalog.Catalog
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}

	return &Handler{
		tg:       opts.Telegram,
		sessions: opts.Sessions,
		catalog:  cat,
		logger:   logger,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func sessionID(chatID int64) string {
	return fmt.Sprintf("tg-%d", chatID)
}

func senderID(msg *tgbotapi.Message) int64 {
	if msg.From == nil {
		return 0
	}
	return msg.From.ID
}

func (h *Handler) workspace(chatID int64) *session.Workspace {
	return h.sessions.GetOrCreate(sessionID(chatID))
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, msg)
	}

	if len(msg.Photo) > 0 {
		return h.handlePhoto(ctx, chatID, msg)
	}

	if strings.TrimSpace(msg.Text) != "" {
		return h.handleText(ctx, chatID, msg.Text)
	}

	return nil
}

func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	if err := h.processPhotos(ctx, group.ChatID, group.Caption, group.FileIDs); err != nil {
		h.logger.Error("media group processing failed", "err", err)
	}
}

const helpText = "📸 Product Mockup Studio\n\n" +
	"Send a product photo to start. Caption a photo with \"style\" to use it as a style reference, " +
	"\"layout\" for a text overlay style reference, or \"base\" to overlay text on that photo. " +
	"An album of two photos is read as product + style.\n\n" +
	"Commands:\n" +
	"/generate - render a mockup\n" +
	"/modify <text> - edit the latest image\n" +
	"/set <option> <value> - change a photo option\n" +
	"/options [option] - show options\n" +
	"/style on|off - use the style reference\n" +
	"/vibe on|off - match the product vibe\n" +
	"/png on|off - transparent PNG output\n" +
	"/overlay [language] - add marketing text\n" +
	"/history - recent images\n" +
	"/clear - start over\n\n" +
	"Any other text edits the latest image."

func (h *Handler) handleCommand(ctx context.Context, chatID int64, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		return h.tg.SendText(chatID, helpText)
	case "generate":
		return h.generate(ctx, chatID)
	case "modify":
		if args == "" {
			return h.tg.SendText(chatID, "❌ Tell me what to change.\nExample: /modify make the lighting warmer")
		}
		return h.modify(ctx, chatID, args)
	case "set":
		field, value, ok := splitSetArgs(args)
		if !ok {
			return h.tg.SendText(chatID, "❌ Usage: /set <option> <value>\nExample: /set surface light oak")
		}
		return h.applyPatch(chatID, session.SettingsPatch{Options: map[string]string{field: value}})
	case "options":
		if args == "" {
			return h.sendOptionsMenu(chatID, senderID(msg))
		}
		return h.describeOption(chatID, args)
	case "style", "vibe", "png":
		return h.toggle(chatID, msg.Command(), args)
	case "overlay":
		return h.runOverlay(ctx, chatID, args)
	case "history":
		return h.sendHistory(chatID)
	case "clear":
		h.sessions.Delete(sessionID(chatID))
		return h.tg.SendText(chatID, "✅ Session cleared.")
	default:
		return h.tg.SendText(chatID, "❌ Unknown command. Use /help.")
	}
}

func (h *Handler) handleText(ctx context.Context, chatID int64, text string) error {
	ws := h.workspace(chatID)
	if ws.Current().IsZero() {
		return h.tg.SendText(chatID, "Send a product photo and use /generate first. Text messages edit the latest image.")
	}
	return h.modify(ctx, chatID, strings.TrimSpace(text))
}

func (h *Handler) handlePhoto(ctx context.Context, chatID int64, msg *tgbotapi.Message) error {
	photo := msg.Photo[len(msg.Photo)-1]

	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			UserID:       senderID(msg),
			MessageID:    msg.MessageID,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       photo.FileID,
		})
		return nil
	}

	return h.processPhotos(ctx, chatID, msg.Caption, []string{photo.FileID})
}

func (h *Handler) processPhotos(ctx context.Context, chatID int64, caption string, fileIDs []string) error {
	h.tg.SendTyping(chatID)

	images := make([]imagedata.Image, len(fileIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, fileID := range fileIDs {
		eg.Go(func() error {
			img, err := h.tg.DownloadImage(egCtx, fileID)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.logger.Error("photo download failed", "err", err)
		return h.tg.SendText(chatID, "❌ Failed to download the photo.")
	}

	ws := h.workspace(chatID)

	if len(images) >= 2 {
		ws.SetProduct(images[0])
		ws.SetStyle(images[1])
		on := true
		_ = ws.UpdateSettings(session.SettingsPatch{UseStyleReference: &on})
		reply := "✅ Product image and style reference saved. Analyzing them now; send /generate when ready."
		if len(images) > 2 {
			reply += fmt.Sprintf("\n(%d extra photos were ignored.)", len(images)-2)
		}
		return h.tg.SendText(chatID, reply)
	}

	role := captionRole(caption)
	switch role {
	case roleStyle:
		ws.SetStyle(images[0])
		on := true
		_ = ws.UpdateSettings(session.SettingsPatch{UseStyleReference: &on})
	case roleLayout:
		ws.SetOverlayStyle(images[0])
	case roleOverlayBase:
		ws.SetOverlayProduct(images[0])
	default:
		ws.SetProduct(images[0])
	}
	h.logger.Info("photo received", "session", ws.ID, "role", role.String())
	return h.tg.SendText(chatID, fmt.Sprintf("✅ Saved as the %s.", role))
}

func (h *Handler) generate(ctx context.Context, chatID int64) error {
	ws := h.workspace(chatID)
	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, "🎨 Generating your mockup, please wait...")

	// Analyses started by recent uploads are folded in when they finish in time.
	waitCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
	_ = ws.AwaitAnalyses(waitCtx)
	cancel()

	img, gen, err := ws.Generate(ctx)
	if gen != nil && gen.ExtractedText != "" {
		_ = h.tg.SendText(chatID, "📝 Label text:\n"+gen.ExtractedText)
	}
	if err != nil {
		return h.sendError(chatID, "generate", err)
	}
	return h.tg.SendImage(chatID, img, "✅ Done! Send text or /modify to refine it.")
}

func (h *Handler) modify(ctx context.Context, chatID int64, instruction string) error {
	ws := h.workspace(chatID)
	h.tg.SendTyping(chatID)

	img, err := ws.Modify(ctx, imagedata.Image{}, instruction)
	if err != nil {
		return h.sendError(chatID, "modify image", err)
	}
	return h.tg.SendImage(chatID, img, "✅ Updated.")
}

func (h *Handler) applyPatch(chatID int64, patch session.SettingsPatch) error {
	ws := h.workspace(chatID)
	if err := ws.UpdateSettings(patch); err != nil {
		return h.sendError(chatID, "update settings", err)
	}
	return h.tg.SendText(chatID, "✅ Settings updated.\n\n"+settingsText(ws.Settings()))
}

func (h *Handler) toggle(chatID int64, name, arg string) error {
	on, err := parseToggle(arg)
	if err != nil {
		return h.tg.SendText(chatID, fmt.Sprintf("❌ Usage: /%s on|off", name))
	}
	var patch session.SettingsPatch
	switch name {
	case "style":
		patch.UseStyleReference = &on
	case "vibe":
		patch.MatchProductVibe = &on
	default:
		patch.OutputPNG = &on
	}
	return h.applyPatch(chatID, patch)
}

func (h *Handler) describeOption(chatID int64, field string) error {
	opt, ok := h.catalog.Option(field)
	if !ok {
		return h.tg.SendText(chatID, fmt.Sprintf("❌ Unknown option %q. Options: %s", field, strings.Join(catalog.Fields, ", ")))
	}
	current, _ := h.workspace(chatID).Settings().Get(opt.Field)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", opt.Label, opt.Field)
	for _, v := range opt.Values {
		marker := "  "
		if v == current {
			marker = "✅"
		}
		fmt.Fprintf(&sb, "%s %s\n", marker, v)
	}
	fmt.Fprintf(&sb, "\nUse /set %s <value>", opt.Field)
	return h.tg.SendText(chatID, sb.String())
}

func (h *Handler) runOverlay(ctx context.Context, chatID int64, lang string) error {
	ws := h.workspace(chatID)
	if lang != "" {
		opts := ws.Overlay().Options()
		opts.Language = lang
		if err := ws.SetOverlayOptions(opts); err != nil {
			return h.sendError(chatID, "update overlay options", err)
		}
	}

	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, "✍️ Adding text overlay, this takes a few steps...")

	// A layout upload starts its analysis right away; reuse it.
	waitCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
	_ = ws.AwaitAnalyses(waitCtx)
	cancel()

	if err := ws.ContinueOverlay(ctx); err != nil {
		return h.sendError(chatID, "complete overlay generation", err)
	}
	snap := ws.Overlay().Snapshot()
	if !snap.Render.Present {
		return h.tg.SendText(chatID, "❌ The overlay was replaced by a newer request.")
	}
	return h.tg.SendImage(chatID, snap.Render.Value, "✅ Overlay ready ("+snap.Options.Language+").")
}

func (h *Handler) sendHistory(chatID int64) error {
	entries := h.workspace(chatID).History().List()
	if len(entries) == 0 {
		return h.tg.SendText(chatID, "No images yet.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🕘 %d recent images:\n", len(entries))
	for i, e := range entries {
		fmt.Fprintf(&sb, "%d. %s at %s\n", i+1, e.Source, e.CreatedAt.Format("15:04:05"))
	}
	if err := h.tg.SendText(chatID, sb.String()); err != nil {
		return err
	}
	return h.tg.SendImage(chatID, entries[0].Image, "Latest")
}

// sendError reports a failed operation to the chat. Stale results are only
// logged.
func (h *Handler) sendError(chatID int64, op string, err error) error {
	if errors.Is(err, overlay.ErrSuperseded) || errors.Is(err, session.ErrProductChanged) {
		h.logger.Info("result discarded", "op", op, "err", err)
		return h.tg.SendText(chatID, "ℹ️ Your inputs changed while this was running; the result was discarded.")
	}
	h.logger.Warn("operation failed", "op", op, "err", err)
	return h.tg.SendText(chatID, "❌ "+session.ErrorMessage(op, err))
}
