// Package notifier pushes a day's prayer times to a chat.
//
// The Telegram notifier posts an HTML-formatted message through the Bot API.
// DryRun writes the same message to a writer instead, for previews and tests.
package notifier
