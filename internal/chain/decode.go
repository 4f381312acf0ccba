package chain

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// accountDiscriminatorLen is the tag prefixing every program account.
const accountDiscriminatorLen = 8

// ErrMalformedAccount is returned when account data does not match the
// expected layout.
var ErrMalformedAccount = errors.New("malformed account data")

// reader walks a little-endian account buffer.
type reader struct {
	data []byte
	pos  int
	err  error
}

func newReader(data []byte) (*reader, error) {
	if len(data) < accountDiscriminatorLen {
		return nil, fmt.Errorf("%w: shorter than discriminator", ErrMalformedAccount)
	}
	return &reader{data: data, pos: accountDiscriminatorLen}, nil
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf("%w: truncated at offset %d", ErrMalformedAccount, r.pos)
		return nil
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *reader) u64() uint64 {
	b := r.bytes(8)
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) i64() int64 {
	return int64(r.u64())
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u8() uint8 {
	b := r.bytes(1)
	if r.err != nil {
		return 0
	}
	return b[0]
}

// pubkey reads a 32-byte key and renders it as hex.
func (r *reader) pubkey() string {
	b := r.bytes(32)
	if r.err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}

// str reads a u32 length prefix followed by that many UTF-8 bytes.
func (r *reader) str() string {
	n := r.u32()
	b := r.bytes(int(n))
	if r.err != nil {
		return ""
	}
	return string(b)
}

func unixOrZero(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

// decodeIdentity parses an identity registry account: authority pubkey, DID
// string, verification bitmap, reputation score, staked amount, two
// timestamps, metadata URI, recovery key list, bump seed.
func decodeIdentity(data []byte) (*IdentityRecord, error) {
	r, err := newReader(data)
	if err != nil {
		return nil, err
	}

	record := &IdentityRecord{
		Authority:          r.pubkey(),
		DID:                r.str(),
		VerificationBitmap: r.u64(),
		ReputationScore:    r.u64(),
		StakedAmount:       r.u64(),
	}
	record.CreatedAt = unixOrZero(r.i64())
	record.LastUpdated = unixOrZero(r.i64())
	record.MetadataURI = r.str()

	keyCount := r.u32()
	for i := uint32(0); i < keyCount && r.err == nil; i++ {
		record.RecoveryKeys = append(record.RecoveryKeys, r.pubkey())
	}
	r.u8() // bump seed, unused off-chain

	if r.err != nil {
		return nil, r.err
	}
	return record, nil
}

// decodeReputation parses a reputation engine account: identity pubkey,
// score, last-updated timestamp, five event counters, bump seed.
func decodeReputation(data []byte) (*ReputationRecord, error) {
	r, err := newReader(data)
	if err != nil {
		return nil, err
	}

	record := &ReputationRecord{
		Identity: r.pubkey(),
		Score:    r.u64(),
	}
	record.LastUpdated = unixOrZero(r.i64())
	record.VerificationCount = r.u64()
	record.CredentialCount = r.u64()
	record.ActivityCount = r.u64()
	record.ChallengesReceived = r.u64()
	record.ChallengesWon = r.u64()
	r.u8() // bump seed, unused off-chain

	if r.err != nil {
		return nil, r.err
	}
	return record, nil
}
