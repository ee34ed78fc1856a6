/*
 *  Copyright 2018 KardiaChain
 *  This file is part of the go-kardia library.
 *
 *  The go-kardia library is free software: you can redistribute it and/or modify
 *  it under the terms of the GNU Lesser General Public License as published by
 *  the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  The go-kardia library is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 *  GNU Lesser General Public License for more details.
 *
 *  You should have received a copy of the GNU Lesser General Public License
 *  along with the go-kardia library. If not, see <http://www.gnu.org/licenses/>.
 */
// Package utils
package utils

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

func CleanUpHex(s string) string {
	s = strings.Replace(strings.TrimPrefix(s, "0x"), " ", "", -1)

	return strings.ToLower(s)
}

// ValidateAccount returns the checksummed form of an account address.
func ValidateAccount(accountAddress string) (string, error) {
	cleaned := CleanUpHex(accountAddress)
	if len(cleaned) != 40 {
		return "", errors.New("invalid account address")
	}
	return common.HexToAddress(cleaned).Hex(), nil
}

// IsZeroAddress reports whether v is empty or the zero address.
func IsZeroAddress(v string) bool {
	return v == "" || common.HexToAddress(v) == (common.Address{})
}
