package pptx

// XML fragments are unmarshaled with local names only; PPTX prefixes (p:, a:)
// resolve to namespaces Go maps onto the name's Space, which the tags below
// deliberately ignore.

type presentationXML struct {
	SldSz *slideSizeXML `xml:"sldSz"`
}

type slideSizeXML struct {
	Cx int64 `xml:"cx,attr"` // width in EMU
	Cy int64 `xml:"cy,attr"` // height in EMU
}

// shapeFragmentXML covers the attributes we need from any top-level shape
// tree child: sp, pic, cxnSp carry spPr; grpSp carries grpSpPr; graphicFrame
// has a bare xfrm. Only sp can carry a txBody directly, so table cell text
// inside graphic frames never leaks in.
type shapeFragmentXML struct {
	SpPr    *spPrXML   `xml:"spPr"`
	GrpSpPr *spPrXML   `xml:"grpSpPr"`
	Xfrm    *xfrmXML   `xml:"xfrm"`
	TxBody  *txBodyXML `xml:"txBody"`
}

type spPrXML struct {
	Xfrm *xfrmXML `xml:"xfrm"`
	Ln   *lnXML   `xml:"ln"`
}

type xfrmXML struct {
	Off *offXML `xml:"off"`
	Ext *extXML `xml:"ext"`
}

type offXML struct {
	X int64 `xml:"x,attr"`
	Y int64 `xml:"y,attr"`
}

type extXML struct {
	Cx int64 `xml:"cx,attr"`
	Cy int64 `xml:"cy,attr"`
}

type lnXML struct {
	NoFill    *struct{}     `xml:"noFill"`
	SolidFill *solidFillXML `xml:"solidFill"`
}

type solidFillXML struct {
	Srgb *srgbClrXML `xml:"srgbClr"`
	// Scheme colors need the theme to resolve; shapes using them are
	// treated as having no observable outline color.
	Scheme *struct{} `xml:"schemeClr"`
}

type srgbClrXML struct {
	Val string `xml:"val,attr"`
}

type txBodyXML struct {
	P []paragraphXML `xml:"p"`
}

type paragraphXML struct {
	R   []runXML   `xml:"r"`
	Fld []fieldXML `xml:"fld"`
}

type runXML struct {
	T string `xml:"t"`
}

type fieldXML struct {
	T string `xml:"t"`
}
