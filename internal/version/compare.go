package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
)

// CheckSchemaCompatibility reports whether a tick store written with
// storeVersion can be read by a build that expects supportedVersion.
//
// Major and minor must match; patch may differ. A "main" store version
// (written by a development build) is always accepted.
//
//   - store 1.0.3, supported 1.0.0 -> OK
//   - store 1.1.0, supported 1.0.0 -> ERROR
//   - store 2.0.0, supported 1.0.0 -> ERROR
func CheckSchemaCompatibility(storeVersion, supportedVersion string) error {
	storeVersion = strings.TrimPrefix(storeVersion, "v")
	supportedVersion = strings.TrimPrefix(supportedVersion, "v")

	if storeVersion == "main" || supportedVersion == "main" {
		return nil
	}

	stored, err := semver.NewVersion(storeVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreSchemaMismatch, err, "invalid store schema version '%s'", storeVersion)
	}

	supported, err := semver.NewVersion(supportedVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreSchemaMismatch, err, "invalid supported schema version '%s'", supportedVersion)
	}

	if stored.Major() != supported.Major() {
		return errors.Newf(errors.ErrCodeStoreSchemaMismatch,
			"major version mismatch: store schema is %d.x.x but this build reads %d.x.x",
			stored.Major(), supported.Major())
	}

	if stored.Minor() != supported.Minor() {
		return errors.Newf(errors.ErrCodeStoreSchemaMismatch,
			"minor version mismatch: store schema is %d.%d.x but this build reads %d.%d.x",
			stored.Major(), stored.Minor(), supported.Major(), supported.Minor())
	}

	return nil
}
