package pages

import (
	"context"
	"fmt"
	"io"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/web/components"
)

const (
	inputClass = "w-full rounded-md border border-slate-300 px-3 py-2 text-sm focus:outline-none focus:ring-2 focus:ring-slate-400"
	labelClass = "block text-sm font-medium text-slate-700"
)

// HomePage renders the customization form. The page talks to the session API
// with small inline scripts; every field posts its raw value and the server
// decides what is valid.
func HomePage(data components.PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<title>CustQR</title>`)
		b.WriteString(`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`)
		b.WriteString(`<script src="https://cdn.tailwindcss.com"></script>`)
		b.WriteString(`</head><body class="min-h-screen bg-slate-50 text-slate-900">`)
		b.WriteString(`<main class="mx-auto grid max-w-4xl gap-8 p-6 md:grid-cols-2">`)

		b.WriteString(`<form id="qr-form" class="space-y-4" onsubmit="return false">`)
		b.WriteString(`<h1 class="text-2xl font-bold">CustQR</h1>`)
		field(&b, "url", "URL", "text", "", fmt.Sprintf(`placeholder="%s" autocomplete="url"`, templ.EscapeString(data.ExampleURL)))
		field(&b, "width", "Size (px)", "number", fmt.Sprint(data.Defaults.Width),
			fmt.Sprintf(`min="%d" max="%d" step="16"`, data.Width.Min, data.Width.Max))
		field(&b, "margin", "Margin (modules)", "number", fmt.Sprint(data.Defaults.Margin),
			fmt.Sprintf(`min="%d" max="%d"`, data.Margin.Min, data.Margin.Max))
		levelSelect(&b, data.Defaults.Level)
		b.WriteString(`<div class="grid grid-cols-2 gap-4">`)
		field(&b, "dark", "Foreground", "color", data.Defaults.Color.Dark, "")
		field(&b, "light", "Background", "color", data.Defaults.Color.Light, "")
		b.WriteString(`</div>`)
		fmt.Fprintf(&b, `<div><label class="%s" for="logo">Logo (max %s)</label>`, labelClass, humanBytes(data.MaxLogoBytes))
		fmt.Fprintf(&b, `<input id="logo" name="logo" type="file" accept="%s" class="%s">`,
			templ.EscapeString(data.AcceptLogo), twmerge.Merge(inputClass, "border-dashed"))
		b.WriteString(`<button type="button" id="logo-remove" class="mt-1 text-xs text-slate-500 underline">Remove logo</button></div>`)
		b.WriteString(`<p id="field-error" class="min-h-5 text-sm text-red-600"></p>`)
		b.WriteString(`<p id="contrast" class="min-h-5 text-sm text-amber-700"></p>`)
		b.WriteString(`</form>`)

		b.WriteString(`<section class="flex flex-col items-center gap-4">`)
		fmt.Fprintf(&b, `<div class="flex items-center justify-center rounded-lg border bg-white p-4" style="min-width:%dpx;min-height:%dpx">`,
			data.Width.Min, data.Width.Min)
		b.WriteString(`<img id="preview" alt="QR code preview" class="hidden">`)
		b.WriteString(`<p id="placeholder" class="text-sm text-slate-400">Enter a URL to generate a QR code</p></div>`)
		b.WriteString(`<div class="flex gap-2">`)
		for _, f := range []string{"png", "svg", "pdf"} {
			fmt.Fprintf(&b, `<button type="button" data-export="%s" class="%s" disabled>%s</button>`,
				f, twmerge.Merge("rounded-md bg-slate-900 px-4 py-2 text-sm text-white", "disabled:opacity-40"), strings.ToUpper(f))
		}
		b.WriteString(`</div></section></main>`)
		b.WriteString(`<div id="toasts"></div>`)
		b.WriteString(pageScript)
		b.WriteString(`</body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func field(b *strings.Builder, name, label, typ, value, extra string) {
	fmt.Fprintf(b, `<div><label class="%s" for="%s">%s</label>`, labelClass, name, label)
	fmt.Fprintf(b, `<input id="%s" name="%s" type="%s" value="%s" class="%s" %s></div>`,
		name, name, typ, templ.EscapeString(value), inputClass, extra)
}

func levelSelect(b *strings.Builder, selected entity.Level) {
	fmt.Fprintf(b, `<div><label class="%s" for="level">Error correction</label><select id="level" name="level" class="%s">`, labelClass, inputClass)
	for _, opt := range []struct {
		level entity.Level
		label string
	}{
		{entity.LevelLow, "Low (7%)"},
		{entity.LevelMedium, "Medium (15%)"},
		{entity.LevelQuart, "Quartile (25%)"},
		{entity.LevelHighest, "High (30%)"},
	} {
		sel := ""
		if opt.level == selected {
			sel = " selected"
		}
		fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, opt.level, sel, opt.label)
	}
	b.WriteString(`</select></div>`)
}

func humanBytes(n int64) string {
	if n >= 1<<20 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d KB", n>>10)
}

// pageScript wires the form to the session API. Debouncing happens on the
// server, so every keystroke is sent as-is.
const pageScript = `<script>
(async () => {
  const api = "/api/sessions";
  const res = await fetch(api, {method: "POST"});
  const {id} = await res.json();
  const base = api + "/" + id;
  const $ = (s) => document.getElementById(s);
  let shown = 0;

  const patch = async (body) => {
    const r = await fetch(base + "/options", {method: "PATCH", headers: {"Content-Type": "application/json"}, body: JSON.stringify(body)});
    const out = await r.json();
    const errs = ["url", "width", "margin", "level", "colors"].map((k) => out[k] && out[k].error).filter(Boolean);
    $("field-error").textContent = errs.join(" ");
    $("contrast").textContent = (out.colors && out.colors.warning) || "";
  };

  for (const name of ["url", "width", "margin", "level", "dark", "light"]) {
    $(name).addEventListener("input", (e) => patch({[name]: e.target.value}));
  }

  $("logo").addEventListener("change", async (e) => {
    if (!e.target.files.length) return;
    const fd = new FormData();
    fd.append("logo", e.target.files[0]);
    const r = await fetch(base + "/logo", {method: "POST", body: fd, headers: {"HX-Request": "true"}});
    if (!r.ok) { $("toasts").innerHTML = await r.text(); e.target.value = ""; }
  });
  $("logo-remove").addEventListener("click", () => { fetch(base + "/logo", {method: "DELETE"}); $("logo").value = ""; });

  document.querySelectorAll("[data-export]").forEach((btn) => {
    btn.addEventListener("click", () => { window.location = base + "/export?format=" + btn.dataset.export; });
  });

  setInterval(async () => {
    const st = await (await fetch(base)).json();
    const ready = st.hasQR;
    document.querySelectorAll("[data-export]").forEach((b) => (b.disabled = !ready));
    $("placeholder").classList.toggle("hidden", ready);
    $("preview").classList.toggle("hidden", !ready);
    if (ready && st.version !== shown) {
      shown = st.version;
      $("preview").src = base + "/preview?v=" + shown;
    }
  }, 250);

  window.addEventListener("pagehide", () => fetch(base, {method: "DELETE", keepalive: true}));
})();
</script>`
