package vault

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ladzaretti/bunker/vaultcrypto"
)

// RawBytes marshals as a native JSON array of integers (e.g. [1,2,3])
// instead of encoding/json's default base64 string. This is the on-disk
// convention inside a vault -- the export envelope, in contrast,
// base64-encodes its ciphertext components (see vltexport).
type RawBytes []byte

var _ json.Marshaler = RawBytes(nil)
var _ json.Unmarshaler = (*RawBytes)(nil)

func (b RawBytes) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("[]"), nil
	}

	var buf bytes.Buffer

	buf.WriteByte('[')

	for i, v := range b {
		if i > 0 {
			buf.WriteByte(',')
		}

		fmt.Fprintf(&buf, "%d", v)
	}

	buf.WriteByte(']')

	return buf.Bytes(), nil
}

func (b *RawBytes) UnmarshalJSON(data []byte) error {
	var nums []int

	if err := json.Unmarshal(data, &nums); err != nil {
		return fmt.Errorf("rawbytes: %w", err)
	}

	out := make([]byte, len(nums))
	for i, n := range nums {
		out[i] = byte(n)
	}

	*b = out

	return nil
}

// EncryptedValue is the on-disk shape of the (nonce, ciphertext, salt)
// tuple, with each component serialized as a RawBytes integer array.
type EncryptedValue struct {
	Nonce      RawBytes `json:"nonce"`
	Ciphertext RawBytes `json:"ciphertext"`
	Salt       RawBytes `json:"salt"`
}

// toCrypto converts the on-disk shape into the plain []byte triple
// [vaultcrypto.Encrypt]/[vaultcrypto.Decrypt] operate on.
func (ev EncryptedValue) toCrypto() vaultcrypto.EncryptedValue {
	return vaultcrypto.EncryptedValue{
		Nonce:      []byte(ev.Nonce),
		Ciphertext: []byte(ev.Ciphertext),
		Salt:       []byte(ev.Salt),
	}
}

func fromCrypto(ev vaultcrypto.EncryptedValue) EncryptedValue {
	return EncryptedValue{
		Nonce:      RawBytes(ev.Nonce),
		Ciphertext: RawBytes(ev.Ciphertext),
		Salt:       RawBytes(ev.Salt),
	}
}

// marshalPretty renders v as indented JSON, the convention used for every
// vault-owned file.
func marshalPretty(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
