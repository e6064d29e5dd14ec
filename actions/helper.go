package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"regexp"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/lakepipe/lakepipe/logger"
)

// loadIngestSpec returns the ingest spec from cfg, preferring inline JSON over a spec file.
func loadIngestSpec(cfg *IngestConfig) (*IngestSpec, error) {
	if cfg.SpecJson != "" { // if the spec was supplied inline...
		spec := IngestSpec{}
		err := json.Unmarshal([]byte(cfg.SpecJson), &spec)
		if err != nil {
			return nil, fmt.Errorf("error reading ingest spec JSON: unmarshal errors: %v", err)
		}
		return &spec, nil
	}
	if cfg.SpecFile == "" {
		return nil, fmt.Errorf("please supply an ingest spec file or inline JSON")
	}
	return loadIngestSpecFromFile(cfg.SpecFile)
}

func loadIngestSpecFromFile(specFileName string) (*IngestSpec, error) {
	// Open the spec file.
	raw, err := ioutil.ReadFile(specFileName)
	if err != nil {
		return nil, err
	}
	spec := IngestSpec{}
	// Check file extension YAML or JSON.
	r := regexp.MustCompile(`.*\.(json|yaml)`)
	suffix := r.ReplaceAllString(strings.ToLower(specFileName), `$1`)
	// Unmarshal based on file type.
	if suffix == "json" { // if the file type is json...
		err = json.Unmarshal(raw, &spec)
		if err != nil {
			return nil, fmt.Errorf("error reading ingest spec JSON: unmarshal errors: %v", err)
		}
	} else if suffix == "yaml" { // else the file type is yaml...
		specBytes, err := yaml.YAMLToJSON(raw) // http://ghodss.com/2014/the-right-way-to-handle-yaml-in-golang/
		if err != nil {
			return nil, err
		}
		err = json.Unmarshal(specBytes, &spec)
		if err != nil {
			return nil, fmt.Errorf("error reading ingest spec YAML after conversion to JSON: unmarshal errors: %v", err)
		}
	} else {
		return nil, fmt.Errorf("unable to identify type of ingest spec file by its extension. Please use .yaml or .json")
	}
	return &spec, nil
}

func outputIngestSpec(log logger.Logger, spec *IngestSpec, yamlOrJson string) error {
	if yamlOrJson == "yaml" {
		writeIngestSpecToFile(log, spec, os.Stdout, true)
	} else if yamlOrJson == "json" {
		writeIngestSpecToFile(log, spec, os.Stdout, false)
	} else {
		return fmt.Errorf("unsupported output format %q", yamlOrJson)
	}
	return nil
}

func writeIngestSpecToFile(log logger.Logger, spec *IngestSpec, f io.Writer, useYaml bool) {
	var err error
	var data []byte
	if useYaml {
		data, err = yaml.Marshal(spec)
	} else {
		data, err = json.MarshalIndent(spec, "", "  ")
	}
	if err != nil {
		log.Panic("unable to marshal the ingest spec: ", err)
	}
	_, err = f.Write(data)
	if err != nil {
		log.Panic(err)
	}
}

func mustExecFn(log logger.Logger, printLogFn func(msg string), execFn func() error) {
	printLogFn("Executing SQL...")
	err := execFn()
	if err != nil {
		log.Panic(err)
	}
	printLogFn("SQL succeeded without error.")
}

func getPrintLogFunc(log logger.Logger, useStdOut bool) func(msg string) {
	return func(msg string) {
		if useStdOut {
			fmt.Println(msg)
		} else {
			log.Info(msg)
		}
	}
}
