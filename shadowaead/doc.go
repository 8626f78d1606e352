/*
Package shadowaead implements the Shadowsocks AEAD connection protocol
on top of the cipher façade.

An encrypted stream starts with a random salt of the method's salt
length. The salt and the pre-shared master key derive the session
subkey (HKDF-SHA1, info "ss-subkey"); all records on the stream are
sealed under that subkey with a nonce that starts at zero and is
incremented little-endian after every seal or open. Each record is

	[encrypted payload length][length tag]
	[encrypted payload][payload tag]

with the payload length a 2-byte big-endian integer capped at 0x3FFF.

Each packet on a packet-oriented connection carries its own salt
followed by a single sealed record with a zero nonce. Packets are
protected independently.
*/
package shadowaead
