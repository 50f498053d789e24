package types

import (
	"bytes"
	"fmt"
	"strconv"
)

// FlexUint64 is a collection version. The document service writes versions
// as decimal strings; bare numbers are read too.
type FlexUint64 uint64

func (f *FlexUint64) UnmarshalJSON(data []byte) error {
	digits := bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(digits) == 0 || bytes.Equal(digits, []byte("null")) {
		*f = 0
		return nil
	}
	n, err := strconv.ParseUint(string(digits), 10, 64)
	if err != nil {
		return fmt.Errorf("version %s: %w", data, err)
	}
	*f = FlexUint64(n)
	return nil
}

func (f FlexUint64) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, strconv.FormatUint(uint64(f), 10)), nil
}

func (f FlexUint64) Uint64() uint64 {
	return uint64(f)
}
