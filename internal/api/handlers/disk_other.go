//go:build !unix

package handlers

import "errors"

func diskAvailable(string) (int64, error) {
	return 0, errors.New("statfs не поддерживается на этой платформе")
}
