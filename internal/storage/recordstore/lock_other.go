//go:build !unix

package recordstore

import "errors"

// lockFile: на платформах без flock межпроцессная блокировка недоступна.
func lockFile(string) (func(), error) {
	return nil, errors.New("файловая блокировка не поддерживается на этой платформе")
}
