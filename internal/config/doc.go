// Package config loads the batch configuration of uqam-horaire.
//
// A batch file lists the courses to extract and how to fetch them. Files ending in
// .toml are read with go-toml, files ending in .yaml or .yml with yaml.v3. Values are
// applied in order: defaults, file, UQAM_HORAIRE_* environment variables. The result
// is validated before use.
package config
