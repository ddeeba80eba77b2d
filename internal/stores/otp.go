package stores

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpRecordVersionV1 = 1

var (
	// ErrOTPNotFound covers a missing key and a record older than the TTL.
	ErrOTPNotFound = errors.New("otp record not found")
	// ErrOTPMismatch is returned when the presented code does not match. The
	// record is kept.
	ErrOTPMismatch = errors.New("otp code mismatch")
	// ErrOTPRedisUnavailable wraps transport and decoding failures.
	ErrOTPRedisUnavailable = errors.New("otp redis unavailable")
)

// consumeOTPLua atomically checks and deletes an OTP record.
// KEYS[1] = record key
// ARGV[1] = provided code hash (32 bytes)
// ARGV[2] = current unix time in milliseconds
// ARGV[3] = ttl in milliseconds
//
// Layout: version(1) createdAtMs(8 big-endian) hash(32).
var consumeOTPLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end

if string.byte(data, 1) ~= 1 or string.len(data) ~= 41 then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end

local createdAt = 0
for i = 2, 9 do
  createdAt = createdAt * 256 + string.byte(data, i)
end

if tonumber(ARGV[2]) - createdAt > tonumber(ARGV[3]) then
  redis.call('DEL', KEYS[1])
  return {err='expired'}
end

if string.sub(data, 10, 41) ~= ARGV[1] then
  return {err='mismatch'}
end

redis.call('DEL', KEYS[1])
return data
`)

// OTPRecord is a live verification code for one (role, email) pair. Only the
// code digest is stored.
type OTPRecord struct {
	CreatedAt time.Time
	CodeHash  [32]byte
}

// OTPStore keeps at most one live OTP per (role, email) in Redis.
type OTPStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewOTPStore returns a store writing keys "<prefix>:<role>:<email>" that expire
// after ttl.
func NewOTPStore(client redis.UniversalClient, prefix string, ttl time.Duration) *OTPStore {
	if prefix == "" {
		prefix = "otp"
	}
	return &OTPStore{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *OTPStore) key(role, email string) string {
	return s.prefix + ":" + strings.ToLower(role) + ":" + email
}

// Issue replaces any live record for (role, email) with a new one. The delete
// and the insert run in a single MULTI so no reader sees two codes.
func (s *OTPStore) Issue(ctx context.Context, role, email string, codeHash [32]byte) error {
	encoded, err := encodeOTPRecord(&OTPRecord{CreatedAt: s.now(), CodeHash: codeHash})
	if err != nil {
		return err
	}

	key := s.key(role, email)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.Set(ctx, key, encoded, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOTPRedisUnavailable, err)
	}
	return nil
}

// Consume deletes the record for (role, email) when codeHash matches and the
// record is younger than the TTL. A mismatch leaves the record in place.
func (s *OTPStore) Consume(ctx context.Context, role, email string, codeHash [32]byte) (*OTPRecord, error) {
	result, err := consumeOTPLua.Run(ctx, s.redis,
		[]string{s.key(role, email)},
		string(codeHash[:]),
		s.now().UnixMilli(),
		s.ttl.Milliseconds(),
	).Result()
	if err != nil {
		switch err.Error() {
		case "not_found", "expired":
			return nil, ErrOTPNotFound
		case "mismatch":
			return nil, ErrOTPMismatch
		default:
			return nil, fmt.Errorf("%w: %v", ErrOTPRedisUnavailable, err)
		}
	}

	data, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected lua result type", ErrOTPRedisUnavailable)
	}
	record, err := decodeOTPRecord([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPRedisUnavailable, err)
	}

	// Lua string equality is not constant time.
	if subtle.ConstantTimeCompare(record.CodeHash[:], codeHash[:]) != 1 {
		return nil, ErrOTPMismatch
	}
	return record, nil
}

func encodeOTPRecord(record *OTPRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(41)
	buf.WriteByte(otpRecordVersionV1)
	if err := binary.Write(&buf, binary.BigEndian, record.CreatedAt.UnixMilli()); err != nil {
		return nil, err
	}
	buf.Write(record.CodeHash[:])
	return buf.Bytes(), nil
}

func decodeOTPRecord(data []byte) (*OTPRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != otpRecordVersionV1 {
		return nil, errors.New("invalid otp record version")
	}

	var createdAtMs int64
	if err := binary.Read(reader, binary.BigEndian, &createdAtMs); err != nil {
		return nil, err
	}

	record := &OTPRecord{CreatedAt: time.UnixMilli(createdAtMs)}
	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in otp record")
	}
	return record, nil
}
