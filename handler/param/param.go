package param

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"lending/pkg/number"

	"github.com/asaskevich/govalidator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/schema"
	"github.com/holiman/uint256"
	"github.com/twitchtv/twirp"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.SetAliasTag("json")
	decoder.IgnoreUnknownKeys(true)
}

// Binding decode query parameters for GET requests and the json body
// otherwise, then run govalidator struct validation
func Binding(r *http.Request, v interface{}) error {
	if r.Method == http.MethodGet {
		if err := decoder.Decode(v, r.URL.Query()); err != nil {
			return twirp.InvalidArgumentError("query", err.Error())
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
			return twirp.InvalidArgumentError("body", err.Error())
		}
	}

	if _, err := govalidator.ValidateStruct(v); err != nil {
		return twirp.InvalidArgumentError("params", err.Error())
	}

	return nil
}

// Address parse a hex address, the zero address is rejected
func Address(name, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, twirp.InvalidArgumentError(name, "must be a hex address")
	}

	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, twirp.InvalidArgumentError(name, "must not be the zero address")
	}

	return addr, nil
}

// Amount parse a decimal amount in token units, "1.5" is 1.5e18 base units
func Amount(name, s string) (*uint256.Int, error) {
	v, err := number.ParseUnits(s)
	if err != nil {
		return nil, twirp.InvalidArgumentError(name, fmt.Sprintf("invalid amount %q", s))
	}

	return v, nil
}
