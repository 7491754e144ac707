// Copyright (c) 2026 BVK Chaitanya

package exchange

import "time"

// RemoteTime is a timestamp assigned by the exchange, kept distinct from
// local time because the two clocks are not assumed to be in sync.
type RemoteTime struct {
	time.Time
}

func (v RemoteTime) MarshalBinary() ([]byte, error) {
	s := v.Time.Format(time.RFC3339Nano)
	return []byte(s), nil
}

func (v *RemoteTime) UnmarshalBinary(bs []byte) error {
	t, err := time.Parse(time.RFC3339Nano, string(bs))
	if err != nil {
		return err
	}
	v.Time = t
	return nil
}
