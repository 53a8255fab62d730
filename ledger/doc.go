// Package ledger records which rank output is current for each topic.
//
// Every successful topic run publishes an Entry. Versions per topic increase
// by exactly one; a publish that loses a race against a concurrent writer
// retries against the new latest version and fails with
// ErrConcurrentModification once its retries are exhausted.
//
// Two implementations are provided: MemoryLedger for tests and single-process
// use, and DynamoLedger backed by a DynamoDB table:
//
//	aws dynamodb create-table \
//	  --table-name rankgo-ledger \
//	  --attribute-definitions AttributeName=topic,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=topic,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
package ledger
