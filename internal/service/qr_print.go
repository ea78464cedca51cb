package service

import "html/template"

type printItem struct {
	Number   int
	Name     string
	Capacity int
	SVG      template.HTML
}

type printPage struct {
	Restaurant  string
	GeneratedAt string
	Items       []printItem
}

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>QR Codes - {{.Restaurant}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: Arial, sans-serif; background: white; color: black; }
.print-header { text-align: center; margin-bottom: 30px; padding: 20px; border-bottom: 2px solid #333; }
.print-header h1 { font-size: 24px; margin-bottom: 10px; }
.print-header p { font-size: 14px; color: #666; }
.qr-container { display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 20px; padding: 20px; }
.qr-item { border: 2px solid #333; border-radius: 10px; padding: 20px; text-align: center; page-break-inside: avoid; }
.qr-code { margin-bottom: 15px; }
.qr-code svg { max-width: 150px; height: auto; }
.qr-info h3 { font-size: 18px; margin-bottom: 8px; color: #333; }
.qr-info p { font-size: 12px; margin-bottom: 4px; color: #666; }
.table-name { font-weight: bold; color: #333 !important; }
.capacity { font-style: italic; }
@media print { .print-header button { display: none; } .qr-item { border: 2px solid #000; } }
@page { size: A4; margin: 15mm; }
</style>
</head>
<body>
<div class="print-header">
<h1>QR Codes do Menu</h1>
<p><strong>{{.Restaurant}}</strong></p>
<p>Total de mesas: {{len .Items}}</p>
<p>Gerado em: {{.GeneratedAt}}</p>
<button onclick="window.print()">Imprimir</button>
</div>
<div class="qr-container">
{{- range .Items}}
<div class="qr-item">
<div class="qr-code">{{.SVG}}</div>
<div class="qr-info">
<h3>Mesa {{.Number}}</h3>
<p>{{$.Restaurant}}</p>
{{- if .Name}}
<p class="table-name">{{.Name}}</p>
{{- end}}
<p class="capacity">{{.Capacity}} pessoas</p>
</div>
</div>
{{- end}}
</div>
</body>
</html>
`))
