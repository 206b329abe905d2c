package wallet

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// hardenedKeyStart marks the beginning of the hardened index range.
const hardenedKeyStart uint32 = 0x80000000

// DerivationPath is the internal representation of a hierarchical
// deterministic wallet account
type DerivationPath []uint32

var (
	// BaseDerivationPath m/44'/501', the prefix prepended to relative
	// account paths before derivation.
	BaseDerivationPath = DerivationPath{
		hardenedKeyStart + 44,
		hardenedKeyStart + 501,
	}
)

// ParseDerivationPath converts a derivation path string to the internal
// binary representation. Paths starting with "m/" are absolute and taken
// as-is; anything else must be a relative path in the canonical
// account'/change/index form with a hardened account.
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	var path DerivationPath

	elems := strings.Split(strPath, "/")
	switch {
	case strPath == "":
		return nil, ErrNullDerivationPath

	case containsEmptyString(elems):
		return nil, ErrMalformedDerivationPath
	}

	absolute := strings.TrimSpace(elems[0]) == "m"
	if absolute {
		elems = elems[1:]
		if len(elems) < 1 {
			return nil, ErrMalformedDerivationPath
		}
	} else {
		if len(elems) != 3 {
			return nil, ErrInvalidDerivationPathLength
		}
		if !strings.HasSuffix(strings.TrimSpace(elems[0]), "'") {
			return nil, ErrInvalidDerivationPathAccount
		}
	}

	// all remaining elems are relative, append one by one
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		var value uint32

		if strings.HasSuffix(elem, "'") {
			value = hardenedKeyStart
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}

		// use big int for conversion
		bigval, ok := new(big.Int).SetString(elem, 0)
		if !ok {
			return nil, fmt.Errorf("invalid elem '%s' in path", elem)
		}

		max := math.MaxUint32 - value
		if bigval.Sign() < 0 || bigval.Cmp(big.NewInt(int64(max))) > 0 {
			if value == 0 {
				return nil, fmt.Errorf("elem %v must be in range [0, %d]", bigval, max)
			}
			return nil, fmt.Errorf("elem %v must be in hardened range [0, %d]", bigval, max)
		}
		value += uint32(bigval.Uint64())

		path = append(path, value)
	}

	return path, nil
}

// String converts a binary derivation path to its canonical representation
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	result := "m"
	for _, component := range path {
		var hardened bool
		if component >= hardenedKeyStart {
			component -= hardenedKeyStart
			hardened = true
		}
		result = fmt.Sprintf("%s/%d", result, component)
		if hardened {
			result += "'"
		}
	}
	return result
}

// Index returns the trailing component of the path without the hardened
// marker.
func (path DerivationPath) Index() uint32 {
	if len(path) <= 0 {
		return 0
	}
	last := path[len(path)-1]
	if last >= hardenedKeyStart {
		last -= hardenedKeyStart
	}
	return last
}

func containsEmptyString(composedPath []string) bool {
	for _, s := range composedPath {
		if s == "" {
			return true
		}
	}
	return false
}
