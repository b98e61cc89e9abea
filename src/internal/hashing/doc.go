// Package hashing provides MD5 checksum helpers.
//
// Checksums are used to tell whether the routing configuration a session
// runs with is still the saved one, and to skip rewriting the engine rules
// file when its content did not change.
//
// # Example Usage
//
// Hashing a value while encoding it:
//
//	w := hashing.NewMD5Writer()
//	if err := json.NewEncoder(w).Encode(value); err != nil {
//	    return err
//	}
//	sum, _ := w.GetChecksum()
//
// Comparing a file with new content:
//
//	if old, err := hashing.FileChecksum(path); err == nil && old == hashing.Checksum(data) {
//	    return nil // unchanged
//	}
package hashing
