package build

import "fmt"

const scaffoldLayout = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ page.title | default("Email") }}</title>
  <style>{{ css }}</style>
</head>
<body>
  {% block template %}{% endblock %}
</body>
</html>
`

const scaffoldTemplate = `---
title: Welcome
---
{% block template %}
<table class="w-full">
  <tr>
    <td class="text-center">
      {{ markdown("# Hello from mailbuilder") }}
    </td>
  </tr>
</table>
{% endblock %}
`

// Scaffold writes a starter layout and template under root. Existing files
// are never overwritten.
func Scaffold(root string) ([]string, error) {
	files := []struct{ path, content string }{
		{"src/layouts/main.html", scaffoldLayout},
		{"src/templates/welcome.html", scaffoldTemplate},
	}
	var written []string
	for _, f := range files {
		full, err := WriteNewFile(root, f.path, f.content)
		if err != nil {
			return written, fmt.Errorf("scaffold %s: %w", f.path, err)
		}
		written = append(written, full)
	}
	return written, nil
}
