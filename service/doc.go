// Package service is the only write entry point into the engine. It logs
// every command to the entry WAL, applies it to the order book, stores the
// resulting fills in the outbox and recycles order and level memory once
// no reader can still see it.
//
// It is decoupled from network transports like gRPC.
package service
