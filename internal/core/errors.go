package core

import "errors"

var (
	ErrNotDebianPackage  = errors.New("not a debian package")
	ErrInvalidPackage    = errors.New("invalid or corrupted package")
	ErrNotInstallable    = errors.New("package is not installable")
	ErrInstallInProgress = errors.New("installation already in progress")
	ErrInstallFailed     = errors.New("installation failed")
)
