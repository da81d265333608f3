// Package services implements the hosted backends of the document store.
//
// # Firestore
//
// [FirestoreStore] implements [docstore.Store] with the Cloud Firestore client. Field transforms map onto
// firestore.ArrayUnion, firestore.ArrayRemove and firestore.ServerTimestamp, merge writes use firestore.MergeAll,
// and subscriptions are query snapshot listeners whose changes are translated to [docstore.Change] values.
//
// Credentials come from a service account file or a static OAuth2 access token. When an emulator host is
// configured the client talks to the local emulator instead.
//
// # Redis
//
// [RedisNotifier] implements [docstore.Notifier] over Redis pub/sub so the SQLite backend can wake
// subscriptions in other processes sharing the same database file.
package services
