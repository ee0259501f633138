package wlds

import "image"

// HasFeature reports whether the backend supports a feature.
func (b *Backend) HasFeature(feature Feature) bool {
	switch feature {
	case FeatureSwapBuffers:
		return true

	case FeatureSubwindows, FeatureTouchscreen, FeatureMouse, FeatureMouseWarp,
		FeatureClipboard, FeatureCursorShape, FeatureCustomCursorShape, FeatureIME,
		FeatureWindowTransparency, FeatureHiDPI, FeatureOrientation,
		FeatureKeepScreenOn, FeatureClipboardPrimary, FeatureTextToSpeech:
		b.logger.Debug("feature not implemented", "feature", feature)
		return false

	default:
		return false
	}
}

// unsupported logs a warning the first time that the named method is
// called.
func (b *Backend) unsupported(method string) {
	b.lock()
	defer b.unlock()

	if _, ok := b.warned[method]; ok {
		return
	}
	b.warned[method] = struct{}{}
	b.logger.Warn("not supported by the Wayland backend", "method", method)
}

func (b *Backend) WindowGetPosition(id WindowID) image.Point {
	b.unsupported("WindowGetPosition")
	return image.Point{}
}

func (b *Backend) WindowGetPositionWithDecorations(id WindowID) image.Point {
	b.unsupported("WindowGetPositionWithDecorations")
	return image.Point{}
}

func (b *Backend) WindowSetPosition(id WindowID, pos image.Point) {
	b.unsupported("WindowSetPosition")
}

func (b *Backend) WindowSetTransient(id, parent WindowID) {
	b.unsupported("WindowSetTransient")
}

func (b *Backend) WindowSetFlag(id WindowID, flag WindowFlags, enabled bool) {
	b.unsupported("WindowSetFlag")
}

func (b *Backend) WindowGetFlag(id WindowID, flag WindowFlags) bool {
	b.unsupported("WindowGetFlag")
	return false
}

func (b *Backend) WindowRequestAttention(id WindowID) {
	b.unsupported("WindowRequestAttention")
}

func (b *Backend) WindowMoveToForeground(id WindowID) {
	b.unsupported("WindowMoveToForeground")
}

func (b *Backend) WindowSetCurrentScreen(id WindowID, screen int) {
	b.unsupported("WindowSetCurrentScreen")
}

func (b *Backend) WindowCanMaximize(id WindowID) bool {
	b.unsupported("WindowCanMaximize")
	return false
}

func (b *Backend) WindowAtScreenPosition(pos image.Point) WindowID {
	b.unsupported("WindowAtScreenPosition")
	return InvalidWindowID
}

func (b *Backend) WindowSetInputEventCallback(id WindowID, f func(any)) {
	b.unsupported("WindowSetInputEventCallback")
}

func (b *Backend) WindowSetInputTextCallback(id WindowID, f func(string)) {
	b.unsupported("WindowSetInputTextCallback")
}

func (b *Backend) WindowSetDropFilesCallback(id WindowID, f func([]string)) {
	b.unsupported("WindowSetDropFilesCallback")
}
