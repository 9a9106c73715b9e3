package tray

// SVG content for the tray icon
const SVGContent = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <!-- Selection rectangle -->
  <rect x="3" y="3" width="10" height="7" fill="none" stroke="#0078d4" stroke-width="1.5" stroke-dasharray="2,1" opacity="0.8"/>

  <!-- Scroll arrow -->
  <line x1="8" y1="5" x2="8" y2="12" stroke="#333333" stroke-width="1.2" stroke-linecap="round"/>
  <polyline points="5.5,10 8,12.5 10.5,10" fill="none" stroke="#333333" stroke-width="1.2" stroke-linecap="round"/>
</svg>`

func getIcon() []byte {
	// TODO: rasterize SVGContent once a platform icon pipeline exists
	return nil
}
