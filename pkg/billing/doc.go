// Package billing ingests payment-provider webhook events and turns
// them into subscription lifecycle changes.
//
// Ingestion is idempotent: each provider event id is stored under a
// unique constraint, and redelivered ids are either acknowledged
// without effect (already processed) or retried in place (previously
// failed). Failed events retry on an exponential backoff; events that
// exhaust their attempt budget are marked terminal, handed to a
// ReviewQueue for an operator, and audit-logged.
//
// Webhook authenticity is a precondition for storage: VerifySignature
// checks the HMAC-SHA256 payload signature and its timestamp window
// before anything touches the store.
package billing
