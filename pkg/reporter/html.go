package reporter

import (
	"fmt"
	"html/template"
	"io"
)

const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>K8s Resource Usage Report - {{.ClusterID}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #333;
            padding: 20px;
            line-height: 1.6;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0, 0, 0, 0.1);
            overflow: hidden;
        }
        .header {
            background: linear-gradient(135deg, #326ce5 0%, #1a4d8f 100%);
            color: white;
            padding: 50px 40px;
        }
        .header h1 { font-size: 2.4em; margin-bottom: 15px; }
        .summary {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 25px;
            padding: 40px;
            background: linear-gradient(to bottom, #f8f9fa 0%, #fff 100%);
        }
        .summary-card {
            background: white;
            padding: 30px;
            border-radius: 12px;
            border: 2px solid #e8eaed;
        }
        .summary-card h3 { font-size: 0.85em; color: #5f6368; text-transform: uppercase; }
        .summary-card .value { font-size: 2em; font-weight: 700; color: #202124; }
        .section { padding: 30px 40px; }
        .section h2 { margin-bottom: 15px; color: #202124; }
        table { width: 100%; border-collapse: collapse; }
        th { background: #f8f9fa; text-align: left; padding: 12px; border-bottom: 2px solid #e8eaed; }
        td { padding: 12px; border-bottom: 1px solid #f1f3f4; vertical-align: top; }
        .error { background: #fce8e6; color: #d93025; padding: 12px; border-radius: 6px; }
        .member-error { color: #d93025; font-size: 0.85em; }
        .footer { background: #202124; color: #9aa0a6; padding: 30px; text-align: center; }
        .footer strong { color: #fff; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>⎈ K8s Resource Usage Report</h1>
            <p><strong>Cluster:</strong> {{.ClusterID}}{{if .Region}} | <strong>Region:</strong> {{.Region}}{{end}}</p>
            <p><strong>Generated:</strong> {{.GeneratedAt}}</p>
        </div>

        <div class="summary">
            <div class="summary-card"><h3>Namespaces</h3><div class="value">{{.Summary.Namespaces}}</div></div>
            <div class="summary-card"><h3>Failed</h3><div class="value">{{.Summary.FailedNamespaces}}</div></div>
            <div class="summary-card"><h3>Workloads</h3><div class="value">{{.Summary.Workloads}}</div></div>
            <div class="summary-card"><h3>Instances</h3><div class="value">{{.Summary.Instances}}</div></div>
            <div class="summary-card"><h3>CPU</h3><div class="value">{{.Summary.TotalCPU}}</div></div>
            <div class="summary-card"><h3>Memory</h3><div class="value">{{.Summary.TotalMemory}}</div></div>
        </div>

        {{range $ns := .NamespaceOrder}}{{$r := index $.Namespaces $ns}}{{with $r}}
        <div class="section">
            <h2>{{$ns}}</h2>
            {{if .Error}}
            <div class="error">{{.Error}}</div>
            {{else}}
            <table>
                <thead><tr><th>Workload</th><th>Replicas</th><th>CPU</th><th>Memory</th><th>Instances</th></tr></thead>
                <tbody>
                    {{range $name := $r.WorkloadOrder}}{{with index $r.Workloads $name}}
                    <tr>
                        <td><strong>{{$name}}</strong></td>
                        <td>{{.ReplicaCount}}</td>
                        <td>{{.TotalCPU}}</td>
                        <td>{{.TotalMemory}}</td>
                        <td>{{range .Members}}{{.Name}} {{.CPU}} {{.Memory}}{{if .Error}} <span class="member-error">{{.Error}}</span>{{end}}<br>{{end}}</td>
                    </tr>
                    {{end}}{{end}}
                </tbody>
            </table>
            {{range .Unattributed}}<p class="member-error">{{.Name}}: {{.Error}}</p>{{end}}
            {{end}}
        </div>
        {{end}}{{end}}

        <div class="footer">
            <p>Generated by <strong>k8s-usage-reporter</strong> (report {{.ReportID}})</p>
        </div>
    </div>
</body>
</html>
`

var htmlReport = template.Must(template.New("report").Parse(htmlTemplate))

// GenerateHTML creates an HTML report
func GenerateHTML(doc *Document, writer io.Writer) error {
	if err := htmlReport.Execute(writer, doc); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}
