package notify

import "log/slog"

// logNotification implements the LOG method of §4.6: emit the message
// at info level. LOG never fails, so it runs synchronously on the
// dispatch path rather than being offloaded like MAIL/SMS.
func logNotification(logger *slog.Logger, listID, message string) {
	logger.Info(message, "list_id", listID, "method", "LOG")
}
