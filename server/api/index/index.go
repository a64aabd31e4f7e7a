// Package index 提供服務根路徑（"/"）的簡易導覽頁。
//
// 目的：讓第一次接觸服務的人（或健康檢查腳本）在根路徑就能確認服務在線，
// 並看到可用的 endpoints；不承載任何業務邏輯。
package index

import "net/http"

const indexHTML = `<!doctype html>
<html lang="zh-Hant">
<head>
  <meta charset="utf-8" />
  <link rel="icon" type="image/svg+xml" href="/favicon.svg" />
  <title>Matchlab</title>
  <style>
    body { font-family: -apple-system,BlinkMacSystemFont,"Segoe UI",sans-serif; background:#0f172a; color:#e2e8f0; margin:0; }
    .wrap { max-width: 720px; margin: 48px auto; padding: 24px 28px; background:#111827; border:1px solid #1f2937; border-radius:12px; }
    h1 { margin: 0 0 8px; font-size: 24px; }
    p { color:#94a3b8; }
    ul { line-height: 1.9; }
    a { color:#38bdf8; text-decoration:none; }
    a:hover { text-decoration:underline; }
    code { background:#0b1224; border:1px solid #1f2738; border-radius:6px; padding:2px 6px; font-size:13px; }
  </style>
</head>
<body>
  <div class="wrap">
    <h1>Matchlab</h1>
    <p>Match-3 simulation &amp; serving runtime.</p>
    <ul>
      <li><a href="/dev">/dev</a> — Dev Panel</li>
      <li><code>GET/POST /v1/swap</code> — 執行一次 swap</li>
      <li><code>GET /v1/metrics</code> — engine pool metrics</li>
      <li><code>GET/POST /v1/sim</code> — 模擬 N 回合</li>
      <li><code>GET/POST /v1/simsession</code> — session 模擬（含估計量）</li>
      <li><code>POST /v1/simbycfg</code> — 以 JSON 關卡設定直接模擬</li>
      <li><code>POST /v1/stat</code> — 回灌外部 move log 產生統計</li>
    </ul>
  </div>
</body>
</html>`

// IndexHandlerFn 回傳導覽頁 HTML。
func IndexHandlerFn(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}
