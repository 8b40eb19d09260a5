// Package gmail provides the Gmail API operations used by inbox triage.
//
// A Client lists today's messages, fetches and parses them into Email
// values, reports the mailbox address of the account and permanently
// deletes messages classified as spam. Every API call is recorded as a
// span and a metric.
//
// Message bodies are decoded from the payload or from the first text/plain
// part; HTML-only messages are converted to text. Header-based bulk mail
// hints (List-Unsubscribe, Precedence, no-reply senders) are exposed through
// BulkSignals so they can be handed to the classifier.
//
// Example usage:
//
//	client, err := gmail.NewClientForAccount(ctx, "work")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ids, err := client.ListRecentMessages(ctx, midnight, 50)
//	for _, id := range ids {
//	    msg, err := client.GetMessage(ctx, id)
//	    ...
//	    email := gmail.ParseMessage(msg)
//	}
package gmail
