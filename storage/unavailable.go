/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package storage

// Unavailable stands in when no backend could be opened. Every operation fails.
type Unavailable struct{}

func (Unavailable) IsAvailable() bool         { return false }
func (Unavailable) Get(string) (string, bool) { return "", false }
func (Unavailable) Set(string, string) bool   { return false }
func (Unavailable) Remove(string) bool        { return false }
func (Unavailable) Close() error              { return nil }
