package mapping

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// envelopeVersion changes whenever the on-disk layout changes. Entries written
// with another version are regenerated.
const envelopeVersion = 1

// ErrCorruptMapping marks a stored payload that cannot be decoded.
var ErrCorruptMapping = errors.New("corrupt mapping payload")

// errStaleMapping marks a payload that decodes but belongs to a different
// format version or signature.
var errStaleMapping = errors.New("stale mapping payload")

type envelope struct {
	Version   int             `json:"version"`
	Signature string          `json:"signature"`
	Count     int             `json:"count"`
	Records   json.RawMessage `json:"records"`
}

// Header is the metadata stored alongside the records of a mapping.
type Header struct {
	Version   int    `json:"version"`
	Signature string `json:"signature"`
	Count     int    `json:"count"`
}

func encodeEnvelope[R any](canonical string, records []R) ([]byte, error) {
	if records == nil {
		records = []R{}
	}
	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	data, err := json.Marshal(envelope{
		Version:   envelopeVersion,
		Signature: canonical,
		Count:     len(records),
		Records:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("encode mapping envelope: %w", err)
	}
	return snappy.Encode(nil, data), nil
}

func openEnvelope(payload []byte) (envelope, error) {
	data, err := snappy.Decode(nil, payload)
	if err != nil {
		return envelope{}, fmt.Errorf("%w: decompress: %v", ErrCorruptMapping, err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("%w: decode envelope: %v", ErrCorruptMapping, err)
	}
	return env, nil
}

func decodeEnvelope[R any](payload []byte, canonical string) ([]R, error) {
	env, err := openEnvelope(payload)
	if err != nil {
		return nil, err
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", errStaleMapping, env.Version, envelopeVersion)
	}
	if env.Signature != canonical {
		return nil, fmt.Errorf("%w: signature mismatch", errStaleMapping)
	}
	var records []R
	if err := json.Unmarshal(env.Records, &records); err != nil {
		return nil, fmt.Errorf("%w: decode records: %v", ErrCorruptMapping, err)
	}
	if len(records) != env.Count {
		return nil, fmt.Errorf("%w: %d records, header says %d", ErrCorruptMapping, len(records), env.Count)
	}
	return records, nil
}

// ReadHeader decodes the metadata of a stored payload without its records.
func ReadHeader(payload []byte) (Header, error) {
	env, err := openEnvelope(payload)
	if err != nil {
		return Header{}, err
	}
	return Header{Version: env.Version, Signature: env.Signature, Count: env.Count}, nil
}
