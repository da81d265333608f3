// package services connects the document store to hosted infrastructure
//
// Firestore, Redis
package services

import (
	"github.com/desertthunder/chordsync/internal/docstore"
)

var (
	_ docstore.Store    = (*FirestoreStore)(nil)
	_ docstore.Notifier = (*RedisNotifier)(nil)
)
