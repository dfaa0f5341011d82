package notification

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/olegiv/cbl-analyzer-go/internal/cbl"
	internalerrors "github.com/olegiv/cbl-analyzer-go/internal/errors"
)

const (
	maxMessageLength = 4096
	// minMessageInterval is the minimum time between messages to the same channel
	// to avoid Telegram rate limits
	minMessageInterval = 1 * time.Second
	// maxRetries is the maximum number of retry attempts for sending messages
	maxRetries = 3
	// baseRetryDelay is the initial delay between retries (doubles each attempt)
	baseRetryDelay = 2 * time.Second

	// alertScoreThreshold: analyses scoring below this go to the alerts channel
	alertScoreThreshold = 60.0
)

// TelegramClient handles Telegram notifications
type TelegramClient struct {
	bot             *tgbotapi.BotAPI
	archiveChannel  int64
	alertsChannel   int64
	hostname        string
	lastMessageTime time.Time // tracks last message for rate limiting
}

// NewTelegramClient creates a new Telegram client
func NewTelegramClient(botToken string, archiveChannel, alertsChannel int64) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		// Sanitize error to prevent bot token from appearing in error messages
		return nil, internalerrors.Wrapf(err, "failed to create Telegram bot")
	}

	// Get hostname for reports
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &TelegramClient{
		bot:            bot,
		archiveChannel: archiveChannel,
		alertsChannel:  alertsChannel,
		hostname:       hostname,
	}, nil
}

// SendAnalysisReport sends the analysis report to Telegram channels.
// The narrative is an optional free-text summary appended to the report.
func (t *TelegramClient) SendAnalysisReport(result *cbl.Result, narrative string) error {
	message := t.formatMessage(result, narrative)

	// Send to archive channel (always)
	if err := t.sendToChannel(t.archiveChannel, message); err != nil {
		return fmt.Errorf("failed to send to archive channel: %w", err)
	}

	// Send to alerts channel if configured and the bond quality warrants it
	if t.alertsChannel != 0 && ShouldAlert(result) {
		if err := t.sendToChannel(t.alertsChannel, message); err != nil {
			return fmt.Errorf("failed to send to alerts channel: %w", err)
		}
	}

	return nil
}

// ShouldAlert reports whether the analysis is bad enough for the alerts
// channel: a cement score below the threshold, or any Malo interval.
func ShouldAlert(result *cbl.Result) bool {
	if score, ok := result.KPIs[cbl.KPICementScore]; ok && score < alertScoreThreshold {
		return true
	}
	for _, iv := range result.Intervals {
		if iv.Category == cbl.CategoryBad {
			return true
		}
	}
	return false
}

// formatMessage formats the analysis into a Telegram message
func (t *TelegramClient) formatMessage(result *cbl.Result, narrative string) string {
	var msg strings.Builder

	// Header
	msg.WriteString("🛢 *Cement Bond Analysis Report*\n")
	msg.WriteString(fmt.Sprintf("🏷 Well\\: %s\n", escapeMarkdown(result.Well)))
	msg.WriteString(fmt.Sprintf("🖥 Host\\: %s\n", escapeMarkdown(t.hostname)))
	msg.WriteString(fmt.Sprintf("📅 Date\\: %s\n\n", escapeMarkdown(time.Now().Format("2006-01-02 15:04:05"))))

	// Key figures
	msg.WriteString("📊 *Key Figures*\n")
	msg.WriteString(fmt.Sprintf("• TOC\\: %s m\n", escapeMarkdown(formatFloat(result.KPIs[cbl.KPITOC]))))
	msg.WriteString(fmt.Sprintf("• Cemented interval\\: %s m\n", escapeMarkdown(formatFloat(result.KPIs[cbl.KPITotalM]))))
	msg.WriteString(fmt.Sprintf("• Good bond\\: %s%%\n", escapeMarkdown(formatFloat(result.KPIs[cbl.KPIGoodPct]))))
	if score, ok := result.KPIs[cbl.KPICementScore]; ok {
		msg.WriteString(fmt.Sprintf("%s Cement score\\: %s\n", scoreEmoji(score), escapeMarkdown(formatFloat(score))))
	}
	if apnz, ok := result.KPIs[cbl.KPIApnzPct]; ok {
		msg.WriteString(fmt.Sprintf("• Layer adhesion \\(Apnz\\)\\: %s%%\n", escapeMarkdown(formatFloat(apnz))))
	}
	if asello, ok := result.KPIs[cbl.KPIAselloPct]; ok {
		msg.WriteString(fmt.Sprintf("• Seal adhesion \\(Asello\\)\\: %s%%\n", escapeMarkdown(formatFloat(asello))))
	}
	msg.WriteString("\n")

	// Critical intervals
	if len(result.Intervals) > 0 {
		msg.WriteString(fmt.Sprintf("🔴 *Poorly Bonded Intervals* \\(%d\\)\n", len(result.Intervals)))
		for i, iv := range result.Intervals {
			msg.WriteString(fmt.Sprintf("%d\\. %s %s\\-%s m \\(%s m\\)\n",
				i+1,
				escapeMarkdown(string(iv.Category)),
				escapeMarkdown(formatFloat(iv.Top)),
				escapeMarkdown(formatFloat(iv.Base)),
				escapeMarkdown(formatFloat(iv.Length)),
			))
		}
		msg.WriteString("\n")
	}

	// Per-layer adhesion
	if len(result.Layers) > 0 {
		msg.WriteString("🪨 *Layer Adhesion*\n")
		for _, layer := range result.Layers {
			adhesion := "n/a"
			if !math.IsNaN(layer.AdhesionPct) {
				adhesion = formatFloat(layer.AdhesionPct) + "%"
			}
			msg.WriteString(fmt.Sprintf("• %s \\(%s\\-%s m\\)\\: %s\n",
				escapeMarkdown(layer.Label),
				escapeMarkdown(formatFloat(layer.Top)),
				escapeMarkdown(formatFloat(layer.Base)),
				escapeMarkdown(adhesion),
			))
		}
		msg.WriteString("\n")
	}

	// Narrative summary
	if narrative != "" {
		msg.WriteString("📝 *Summary*\n")
		msg.WriteString(escapeMarkdown(narrative))
		msg.WriteString("\n")
	}

	return msg.String()
}

// formatFloat renders a KPI value with two decimals, trimming trailing zeros
func formatFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// scoreEmoji picks a traffic-light emoji for the cement score
func scoreEmoji(score float64) string {
	switch {
	case score >= 80:
		return "🟢"
	case score >= alertScoreThreshold:
		return "🟡"
	default:
		return "🔴"
	}
}

// sendToChannel sends a message to a Telegram channel with rate limiting
func (t *TelegramClient) sendToChannel(channelID int64, message string) error {
	// Split message if it exceeds Telegram's limit
	messages := t.splitMessage(message)

	for _, msg := range messages {
		// Apply rate limiting before sending
		t.waitForRateLimit()

		msgConfig := tgbotapi.NewMessage(channelID, msg)
		msgConfig.ParseMode = "MarkdownV2"

		// Send with exponential backoff retry
		if err := t.sendWithRetry(msgConfig); err != nil {
			return err
		}

		// Update last message time for rate limiting
		t.lastMessageTime = time.Now()
	}

	return nil
}

// waitForRateLimit ensures minimum interval between messages
func (t *TelegramClient) waitForRateLimit() {
	if t.lastMessageTime.IsZero() {
		return
	}

	elapsed := time.Since(t.lastMessageTime)
	if elapsed < minMessageInterval {
		time.Sleep(minMessageInterval - elapsed)
	}
}

// sendWithRetry sends a message with exponential backoff retry
func (t *TelegramClient) sendWithRetry(msgConfig tgbotapi.MessageConfig) error {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		_, err := t.bot.Send(msgConfig)
		if err == nil {
			return nil
		}

		lastErr = err

		// Check if this is a rate limit error (429)
		if isRateLimitError(err) {
			// Wait longer for rate limit errors
			retryAfter := extractRetryAfter(err)
			if retryAfter > 0 {
				time.Sleep(time.Duration(retryAfter) * time.Second)
				continue
			}
		}

		// Exponential backoff for other errors
		if attempt < maxRetries {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1)) // 2s, 4s, 8s...
			time.Sleep(delay)
		}
	}

	// Sanitize error to prevent credentials from appearing in error messages
	return internalerrors.Wrapf(lastErr, "failed to send message after %d retries", maxRetries)
}

// isRateLimitError checks if the error is a Telegram rate limit error (429)
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") || strings.Contains(errStr, "Too Many Requests")
}

// extractRetryAfter extracts the retry_after value from a rate limit error
func extractRetryAfter(err error) int {
	if err == nil {
		return 0
	}

	// Telegram API errors typically include retry_after in the message
	// Example: "Too Many Requests: retry after 30"
	errStr := err.Error()

	// Simple extraction - look for "retry after X" pattern
	if idx := strings.Index(strings.ToLower(errStr), "retry after "); idx != -1 {
		remaining := errStr[idx+len("retry after "):]
		var seconds int
		if _, err := fmt.Sscanf(remaining, "%d", &seconds); err == nil {
			return seconds
		}
	}

	// Default to a conservative wait time if we can't extract the value
	return 30
}

// splitMessage splits a long message into multiple messages
func (t *TelegramClient) splitMessage(message string) []string {
	if len(message) <= maxMessageLength {
		return []string{message}
	}

	var messages []string
	lines := strings.Split(message, "\n")
	var currentMsg strings.Builder

	for _, line := range lines {
		// If adding this line would exceed the limit
		if currentMsg.Len()+len(line)+1 > maxMessageLength {
			// Save current message
			if currentMsg.Len() > 0 {
				messages = append(messages, currentMsg.String())
				currentMsg.Reset()
			}

			// If a single line is too long, split it
			if len(line) > maxMessageLength {
				for i := 0; i < len(line); i += maxMessageLength {
					end := i + maxMessageLength
					if end > len(line) {
						end = len(line)
					}
					messages = append(messages, line[i:end])
				}
				continue
			}
		}

		currentMsg.WriteString(line)
		currentMsg.WriteString("\n")
	}

	// Add remaining content
	if currentMsg.Len() > 0 {
		messages = append(messages, currentMsg.String())
	}

	return messages
}

// escapeMarkdown escapes special characters for Telegram MarkdownV2
func escapeMarkdown(text string) string {
	// Characters that need to be escaped in MarkdownV2
	// See: https://core.telegram.org/bots/api#markdownv2-style
	specialChars := []string{
		"_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!", ":",
	}

	result := text
	for _, char := range specialChars {
		result = strings.ReplaceAll(result, char, "\\"+char)
	}

	return result
}

// GetBotInfo returns information about the bot
func (t *TelegramClient) GetBotInfo() map[string]interface{} {
	return map[string]interface{}{
		"username":        t.bot.Self.UserName,
		"archive_channel": t.archiveChannel,
		"alerts_channel":  t.alertsChannel,
		"hostname":        t.hostname,
	}
}

// Close closes the Telegram client
func (t *TelegramClient) Close() error {
	t.bot.StopReceivingUpdates()
	return nil
}
