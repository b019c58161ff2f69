package winscript

import (
	"bytes"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/lyrisync/lyrisync/pkg/config"
	"github.com/pkg/errors"
)

// templateData is the view handed to both installer templates. Paths are
// pre-converted to backslash form so the templates stay plain.
type templateData struct {
	*config.Packaging
	AppNameSansSpace   string
	ConfigFile         string
	SourceDirWin       string
	OutputDirWin       string
	IconWin            string
	LicenseWin         string
	InnoAppID          string
	InnoRegistrySubkey string
}

// GenerateNSIS renders the NSIS installer definition for a packaging config.
func GenerateNSIS(pkg *config.Packaging) ([]byte, error) {
	return generate("nsis", nsisTemplate, pkg)
}

// GenerateInno renders the Inno Setup definition for a packaging config.
func GenerateInno(pkg *config.Packaging) ([]byte, error) {
	return generate("inno", innoTemplate, pkg)
}

func generate(name, text string, pkg *config.Packaging) ([]byte, error) {
	if pkg == nil {
		return nil, errors.New("packaging config cannot be nil")
	}
	if err := validate(pkg); err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s template", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newTemplateData(pkg)); err != nil {
		return nil, errors.Wrapf(err, "failed to execute %s template", name)
	}
	return buf.Bytes(), nil
}

func validate(pkg *config.Packaging) error {
	switch {
	case pkg.AppName == "":
		return errors.New("packaging app_name is required")
	case pkg.ExeName == "":
		return errors.New("packaging exe_name is required")
	case pkg.Version == "":
		return errors.New("packaging version is required")
	}
	return nil
}

func newTemplateData(pkg *config.Packaging) templateData {
	sansSpace := strings.ReplaceAll(pkg.AppName, " ", "")

	configFile := pkg.ConfigFile
	if configFile == "" {
		configFile = config.DefaultFileName
	}
	sourceDir := pkg.SourceDir
	if sourceDir == "" {
		// PyInstaller-style onedir layout.
		sourceDir = filepath.Join("dist", sansSpace)
	}
	outputDir := pkg.OutputDir
	if outputDir == "" {
		outputDir = "dist"
	}

	return templateData{
		Packaging:          pkg,
		AppNameSansSpace:   sansSpace,
		ConfigFile:         configFile,
		SourceDirWin:       winPath(sourceDir),
		OutputDirWin:       winPath(outputDir),
		IconWin:            winPath(pkg.Icon),
		LicenseWin:         winPath(pkg.LicenseFile),
		InnoAppID:          innoAppID(pkg),
		InnoRegistrySubkey: innoRegistrySubkey(pkg),
	}
}

// winPath converts a possibly slash-separated path to the backslash form
// the installer tools expect.
func winPath(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), "/", `\`)
}

// innoAppID builds the [Setup] AppId value. Inno escapes a literal brace
// by doubling it, so a GUID renders as {{<guid>}. Without a GUID the app
// name itself serves as the id.
func innoAppID(pkg *config.Packaging) string {
	guid := strings.Trim(pkg.AppGUID, "{}")
	if guid == "" {
		return pkg.AppName
	}
	return "{{" + guid + "}"
}

func innoRegistrySubkey(pkg *config.Packaging) string {
	if pkg.Publisher == "" {
		return `Software\` + pkg.AppName
	}
	return `Software\` + pkg.Publisher + `\` + pkg.AppName
}
