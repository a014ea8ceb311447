package redis

// DefaultDocumentKey is the single key holding the serialized document.
// The key name must stay consistent across load, save and reset.
const DefaultDocumentKey = "tabdeck:document"
