package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"product-mockup-studio/internal/mockup"
	"product-mockup-studio/internal/session"
)

const optionsCallbackPrefix = "opt"

func (h *Handler) sendOptionsMenu(chatID, ownerID int64) error {
	s := h.workspace(chatID).Settings()
	_, err := h.tg.SendTextWithKeyboard(chatID, settingsText(s), h.mainKeyboard(ownerID, s))
	return err
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil {
		return nil
	}
	parts := strings.Split(strings.TrimSpace(q.Data), ":")
	if len(parts) < 3 || parts[0] != optionsCallbackPrefix {
		return nil
	}

	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	if ownerID != q.From.ID {
		_ = h.tg.AnswerCallback(q.ID, "This menu belongs to someone else.", true)
		return nil
	}

	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID
	ws := h.workspace(chatID)
	action, args := parts[2], parts[3:]

	switch action {
	case "field":
		idx, ok := index(args, 0, len(h.catalog.Options()))
		if !ok {
			return nil
		}
		_ = h.tg.AnswerCallback(q.ID, "", false)
		return h.tg.EditTextWithKeyboard(chatID, msgID, settingsText(ws.Settings()), h.valuesKeyboard(ownerID, idx, ws.Settings()))
	case "value":
		opts := h.catalog.Options()
		fi, ok := index(args, 0, len(opts))
		if !ok {
			return nil
		}
		vi, ok := index(args, 1, len(opts[fi].Values))
		if !ok {
			return nil
		}
		if err := ws.UpdateSettings(session.SettingsPatch{Options: map[string]string{opts[fi].Field: opts[fi].Values[vi]}}); err != nil {
			_ = h.tg.AnswerCallback(q.ID, session.ErrorMessage("update settings", err), true)
			return nil
		}
		_ = h.tg.AnswerCallback(q.ID, opts[fi].Label+": "+opts[fi].Values[vi], false)
	case "toggle":
		if len(args) == 0 {
			return nil
		}
		s := ws.Settings()
		var patch session.SettingsPatch
		switch args[0] {
		case "style":
			v := !s.UseStyleReference
			patch.UseStyleReference = &v
		case "vibe":
			v := !s.MatchProductVibe
			patch.MatchProductVibe = &v
		case "png":
			v := !s.OutputPNG
			patch.OutputPNG = &v
		}
		_ = ws.UpdateSettings(patch)
		_ = h.tg.AnswerCallback(q.ID, "", false)
	case "generate":
		_ = h.tg.AnswerCallback(q.ID, "Generating…", false)
		return h.generate(ctx, chatID)
	case "close":
		_ = h.tg.AnswerCallback(q.ID, "", false)
		return h.tg.EditTextWithKeyboard(chatID, msgID, settingsText(ws.Settings()), tgbotapi.NewInlineKeyboardMarkup())
	default:
		_ = h.tg.AnswerCallback(q.ID, "", false)
	}

	s := ws.Settings()
	return h.tg.EditTextWithKeyboard(chatID, msgID, settingsText(s), h.mainKeyboard(ownerID, s))
}

func index(args []string, pos, n int) (int, bool) {
	if pos >= len(args) {
		return 0, false
	}
	i, err := strconv.Atoi(args[pos])
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func settingsText(s mockup.Settings) string {
	var sb strings.Builder
	sb.WriteString("⚙️ Current settings\n")
	for _, field := range []struct {
		label, value string
	}{
		{"Aspect ratio", s.AspectRatio},
		{"Resolution", s.Resolution},
		{"Camera angle", s.CameraAngle},
		{"Lens", s.Lens},
		{"Aperture", s.Aperture},
		{"Lighting", s.LightingType + ", " + s.LightingDirection},
		{"Surface", s.Surface},
		{"Background", s.Background},
		{"Shadow", s.Shadow},
		{"Reflection", s.Reflection},
		{"Color style", s.ColorStyle},
		{"Composition", s.Composition},
	} {
		fmt.Fprintf(&sb, "• %s: %s\n", field.label, field.value)
	}
	fmt.Fprintf(&sb, "\nStyle reference: %s (image %s)\n", onOff(s.UseStyleReference), present(!s.StyleImage.IsZero()))
	fmt.Fprintf(&sb, "Match vibe: %s\n", onOff(s.MatchProductVibe))
	fmt.Fprintf(&sb, "PNG output: %s\n", onOff(s.OutputPNG))
	if s.ProductImage.IsZero() {
		sb.WriteString("\n📷 No product photo yet.")
	}
	return sb.String()
}

func (h *Handler) mainKeyboard(ownerID int64, s mockup.Settings) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i, opt := range h.catalog.Options() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(opt.Label, cb(ownerID, "field", strconv.Itoa(i))))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows,
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Style: "+onOff(s.UseStyleReference), cb(ownerID, "toggle", "style")),
			tgbotapi.NewInlineKeyboardButtonData("Vibe: "+onOff(s.MatchProductVibe), cb(ownerID, "toggle", "vibe")),
			tgbotapi.NewInlineKeyboardButtonData("PNG: "+onOff(s.OutputPNG), cb(ownerID, "toggle", "png")),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🎨 Generate", cb(ownerID, "generate")),
			tgbotapi.NewInlineKeyboardButtonData("Close", cb(ownerID, "close")),
		},
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (h *Handler) valuesKeyboard(ownerID int64, fieldIdx int, s mockup.Settings) tgbotapi.InlineKeyboardMarkup {
	opt := h.catalog.Options()[fieldIdx]
	current, _ := s.Get(opt.Field)

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i, v := range opt.Values {
		label := v
		if v == current {
			label = "✅ " + v
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "value", strconv.Itoa(fieldIdx), strconv.Itoa(i))))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅ Back", cb(ownerID, "main")),
	})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// cb builds callback data. Values are referenced by index to stay within
// Telegram's 64-byte limit.
func cb(ownerID int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", optionsCallbackPrefix, ownerID, strings.Join(parts, ":"))
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func present(v bool) string {
	if v {
		return "uploaded"
	}
	return "missing"
}
