// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	AnswersFileNotFoundId Id = iota + 1
	AnswersParseErrorId
	SampleAnswersExistsId
	DescriptorParseErrorId
	ContainerEngineNotFoundId
	ProviderNotAvailableId
	PlatformCredentialsMissingId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	answersFileNotFoundIssue = &Issue{
		id: AnswersFileNotFoundId,
		mdMsg: `
# Answers file not found!

The answers file you pointed at with --answers does not exist.

## Things you can try:
- Check the path for typos
- Generate a starter answers file from the bundle:
~~~
$ bundlectl genanswers myapp:1.0
~~~

- Or omit --answers entirely; bundlectl will pick up an answers.conf
  embedded in the bundle if one exists.`,
	}

	answersParseErrorIssue = &Issue{
		id: AnswersParseErrorId,
		mdMsg: `
# Failed to parse answers file!

Your answers file contains syntax errors for its format.

## Common issues:
- TOML section headers without matching keys
- YAML indentation mistakes
- Trailing commas in JSON

## Things you can try:
- Check the error message above for the offending line
- Regenerate a known-good file:
~~~
$ bundlectl genanswers myapp:1.0
~~~

## Example answers file (TOML):
~~~toml
[general]
namespace = "default"
provider = "kubernetes"

[web]
port = "8080"
~~~`,
	}

	sampleAnswersExistsIssue = &Issue{
		id: SampleAnswersExistsId,
		mdMsg: `
# Answers file already exists!

bundlectl refuses to overwrite an existing answers.conf in the current
directory.

## Things you can try:
- Move or rename the existing file, then rerun:
~~~
$ mv answers.conf answers.conf.bak
$ bundlectl genanswers myapp:1.0
~~~

- Or generate into a scratch directory and diff the two files.`,
	}

	descriptorParseErrorIssue = &Issue{
		id: DescriptorParseErrorId,
		mdMsg: `
# Failed to parse bundle descriptor!

The bundle.cue descriptor contains syntax errors or invalid configuration.

## Common issues:
- Invalid CUE syntax (missing quotes, braces, etc.)
- Unknown field names
- Missing required fields (id, artifacts)

## Example of a valid descriptor:
~~~cue
id: "example-app"
version: "1.0"

params: [
	{name: "namespace", default: "default"},
	{name: "image"},
]

artifacts: {
	kubernetes: ["artifacts/kubernetes/deployment.yaml"]
	docker:     ["artifacts/docker/run.args"]
}
~~~`,
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not found!

Unpacking a bundle from an image requires a container engine, but none is
available.

## Supported container engines:
- **Podman** (preferred in rootless setups)
- **Docker**

## Things you can try:
- Install Podman:
  - Linux: ` + "`sudo apt install podman`" + ` or ` + "`sudo dnf install podman`" + `
  - macOS: ` + "`brew install podman`" + `

- Install Docker:
  - https://docs.docker.com/get-docker/

- Or skip the image entirely by pointing bundlectl at an already
  unpacked bundle directory:
~~~
$ bundlectl run ./myapp-bundle
~~~`,
	}

	providerNotAvailableIssue = &Issue{
		id: ProviderNotAvailableId,
		mdMsg: `
# Provider not available!

The selected provider has no usable CLI on this host.

## Things you can try:
- For the kubernetes provider, install kubectl and make sure a
  kubeconfig is present
- For the docker provider, install docker or podman
- Pick a different provider the bundle supports:
~~~
$ bundlectl run myapp:1.0 --provider docker
~~~`,
	}

	platformCredentialsMissingIssue = &Issue{
		id: PlatformCredentialsMissingId,
		mdMsg: `
# Managed platform detected, credentials missing!

bundlectl detected that it is running inside a managed cluster pod, but the
expected environment values were not injected. Partial platform credentials
are treated as fatal.

## Things you can try:
- Expose the pod token and namespace to the container:
~~~yaml
env:
  - name: POD_TOKEN
    valueFrom: {secretKeyRef: {name: bundlectl-token, key: token}}
  - name: POD_NAMESPACE
    valueFrom: {fieldRef: {fieldPath: metadata.namespace}}
~~~

- Or run bundlectl outside the cluster and pass credentials explicitly
  through an answers file.`,
	}

	issues = map[Id]*Issue{
		answersFileNotFoundIssue.Id():        answersFileNotFoundIssue,
		answersParseErrorIssue.Id():          answersParseErrorIssue,
		sampleAnswersExistsIssue.Id():        sampleAnswersExistsIssue,
		descriptorParseErrorIssue.Id():       descriptorParseErrorIssue,
		containerEngineNotFoundIssue.Id():    containerEngineNotFoundIssue,
		providerNotAvailableIssue.Id():       providerNotAvailableIssue,
		platformCredentialsMissingIssue.Id(): platformCredentialsMissingIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
