// Package shadowstream wraps connections with Shadowsocks stream-cipher
// protection. A protected stream starts with a random IV of the
// method's length, followed by the transformed payload bytes. Each
// direction picks its own IV; inbound IVs are checked against a replay
// filter.
package shadowstream
